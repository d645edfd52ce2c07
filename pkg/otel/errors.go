package otel

import "errors"

// 可观测性配置相关错误
var (
	// ErrInvalidSampleRate 采样率超出 [0, 1] 范围
	ErrInvalidSampleRate = errors.New("sample rate must be between 0 and 1")
	// ErrUnsupportedExporter 不支持的导出器类型
	ErrUnsupportedExporter = errors.New("unsupported exporter type")
)
