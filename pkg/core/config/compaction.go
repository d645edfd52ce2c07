package config

// 支持的压缩策略名称
//
// 策略集合是封闭的，未知名称在配置加载时报错，而不是在引擎内部。
const (
	StrategySlidingWindow     = "sliding_window"
	StrategySelectivePruning  = "selective_pruning"
	StrategySummarizeOlder    = "summarize_older"
	StrategyImportanceScoring = "importance_scoring"
	StrategyHybrid            = "hybrid"
)

// CompactionConfig 上下文压缩配置
type CompactionConfig struct {
	// Strategy 压缩策略名称
	// 值: sliding_window, selective_pruning, summarize_older,
	// importance_scoring, hybrid
	Strategy string `koanf:"strategy"`
	// TriggerThresholdTokens 触发压缩的 Token 阈值
	// 当前 Token 数超过该值时 ShouldCompact 返回 true
	TriggerThresholdTokens int `koanf:"trigger_threshold_tokens"`
	// TargetTokens 压缩目标 Token 数
	// 策略尽力压到该值以下，必须小于 TriggerThresholdTokens
	TargetTokens int `koanf:"target_tokens"`
	// PreserveRecentTurns 保留的最近轮次数
	// 工具调用与其结果合计为一轮
	PreserveRecentTurns int `koanf:"preserve_recent_turns"`
	// PreserveSystemPrompt 是否保留开头的系统消息
	PreserveSystemPrompt bool `koanf:"preserve_system_prompt"`
}

// Validate 验证压缩配置
func (c *CompactionConfig) Validate() error {
	switch c.Strategy {
	case StrategySlidingWindow, StrategySelectivePruning,
		StrategySummarizeOlder, StrategyImportanceScoring, StrategyHybrid:
	default:
		return ErrUnknownStrategy
	}
	if c.TriggerThresholdTokens <= 0 || c.TargetTokens <= 0 {
		return ErrInvalidTokenBudget
	}
	if c.TargetTokens >= c.TriggerThresholdTokens {
		return ErrTargetAboveTrigger
	}
	if c.PreserveRecentTurns < 0 {
		return ErrInvalidPreserveTurns
	}
	return nil
}

// WithDefaults 返回带默认值的配置
func (c CompactionConfig) WithDefaults() CompactionConfig {
	if c.Strategy == "" {
		c.Strategy = StrategyHybrid
	}
	if c.TriggerThresholdTokens == 0 {
		c.TriggerThresholdTokens = 8000
	}
	if c.TargetTokens == 0 {
		c.TargetTokens = 4000
	}
	// PreserveRecentTurns 不在这里设默认值：0 是合法取值（不保护尾部），
	// 配置文件/环境变量缺省时的默认值 2 由 Load 按键是否存在判断后应用。
	return c
}
