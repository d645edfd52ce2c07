// Package config 提供配置加载和管理功能
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config 全局配置结构
type Config struct {
	// LLM 模型后端配置
	LLM LLMConfig `koanf:"llm"`
	// Compaction 上下文压缩配置
	Compaction CompactionConfig `koanf:"compaction"`
	// Observability 可观测性配置
	Observability ObservabilityConfig `koanf:"observability"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	// Enabled 是否启用
	Enabled bool `koanf:"enabled"`
	// ServiceName 服务名称
	ServiceName string `koanf:"service_name"`
	// TracerEndpoint 追踪端点
	TracerEndpoint string `koanf:"tracer_endpoint"`
	// MetricsEndpoint 指标端点
	MetricsEndpoint string `koanf:"metrics_endpoint"`
	// SampleRate 采样率 [0, 1]
	SampleRate float64 `koanf:"sample_rate"`
}

// Loader 配置加载器
type Loader struct {
	k *koanf.Koanf
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		k: koanf.New("."),
	}
}

// LoadFile 从 YAML 文件加载配置
func (l *Loader) LoadFile(path string) error {
	// 文件不存在不报错，使用默认值
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	return l.k.Load(file.Provider(path), yaml.Parser())
}

// LoadEnv 从环境变量加载配置
func (l *Loader) LoadEnv(prefix string) error {
	return l.k.Load(env.Provider(prefix, ".", func(s string) string {
		// 双下划线表示层级，单下划线保留在键名内:
		// COMPACTION_COMPACTION__TARGET_TOKENS -> compaction.target_tokens
		s = strings.TrimPrefix(s, prefix)
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, "__", ".")
		return s
	}), nil)
}

// Unmarshal 解析配置到结构体
func (l *Loader) Unmarshal(cfg *Config) error {
	return l.k.Unmarshal("", cfg)
}

// Get 获取配置值
func (l *Loader) Get(key string) interface{} {
	return l.k.Get(key)
}

// GetString 获取字符串配置值
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetInt 获取整数配置值
func (l *Loader) GetInt(key string) int {
	return l.k.Int(key)
}

// GetBool 获取布尔配置值
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// GetDuration 获取时间间隔配置值
func (l *Loader) GetDuration(key string) time.Duration {
	return l.k.Duration(key)
}

// Load 加载完整配置（文件 + 环境变量）
//
// 配置错误（未知策略名、目标不小于触发阈值等）在这里暴露，
// 压缩引擎内部不再重复校验。
func Load(configPath string) (*Config, error) {
	loader := NewLoader()

	if configPath != "" {
		if err := loader.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	// 环境变量优先级更高
	if err := loader.LoadEnv("COMPACTION_"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg, loader)

	if err := cfg.Compaction.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults 应用默认配置值
func applyDefaults(cfg *Config, loader *Loader) {
	cfg.LLM = cfg.LLM.WithDefaults()
	cfg.Compaction = cfg.Compaction.WithDefaults()

	// 0 表示不保护尾部，是合法配置；只有键完全缺省时才应用默认值
	if !loader.k.Exists("compaction.preserve_recent_turns") && cfg.Compaction.PreserveRecentTurns == 0 {
		cfg.Compaction.PreserveRecentTurns = 2
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "compaction-engine"
	}
	if cfg.Observability.SampleRate == 0 {
		cfg.Observability.SampleRate = 1.0
	}
}
