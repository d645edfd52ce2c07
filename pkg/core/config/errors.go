package config

import "errors"

// 配置验证相关错误
var (
	// ErrModelRequired 模型名称必填
	ErrModelRequired = errors.New("model name is required")
	// ErrInvalidTimeout 超时时间无效
	ErrInvalidTimeout = errors.New("invalid timeout value")
	// ErrInvalidMaxRetries 重试次数无效
	ErrInvalidMaxRetries = errors.New("invalid max retries value")
	// ErrUnknownStrategy 未知的压缩策略名称
	ErrUnknownStrategy = errors.New("unknown compaction strategy")
	// ErrInvalidTokenBudget Token 预算无效
	ErrInvalidTokenBudget = errors.New("token budget must be positive")
	// ErrTargetAboveTrigger 目标 Token 数不小于触发阈值
	ErrTargetAboveTrigger = errors.New("target_tokens must be below trigger_threshold_tokens")
	// ErrInvalidPreserveTurns 保留轮次数无效
	ErrInvalidPreserveTurns = errors.New("preserve_recent_turns must not be negative")
)
