// Package llm 提供模型后端的统一接口
//
// 压缩引擎中需要模型能力的策略（总结旧消息、重要性评分）通过 Provider
// 调用外部模型，引擎本身不包含重试与熔断逻辑，这些由 Provider 实现负责。
package llm

import (
	"context"

	"github.com/easyops/compaction-go/pkg/core/message"
)

// Provider 定义模型后端接口
//
// 统一不同 LLM 服务的调用方式，兼容 OpenAI、DeepSeek、通义千问、vLLM
// 等 OpenAI 协议的服务。
type Provider interface {
	// Generate 生成响应
	//
	// 参数:
	//   - ctx: 上下文（取消在调用方实现，引擎不主动取消）
	//   - req: 请求参数
	//
	// 返回:
	//   - Response: 响应结果
	//   - error: 调用错误
	Generate(ctx context.Context, req Request) (Response, error)

	// Name 返回提供商名称
	Name() string

	// Model 返回当前模型名称
	Model() string

	// Close 关闭客户端连接
	Close() error
}

// Request 模型请求
type Request struct {
	// Messages 消息历史
	Messages []message.Message
	// Temperature 温度参数（可选）
	Temperature *float64
	// MaxTokens 最大输出 token（可选）
	MaxTokens *int
	// TopP 核采样参数（可选）
	TopP *float64
	// Stop 停止序列（可选）
	Stop []string
}

// Response 模型响应
type Response struct {
	// ID 响应标识
	ID string `json:"id"`
	// Content 响应文本内容
	Content string `json:"content"`
	// TokenUsage Token 使用统计
	TokenUsage message.TokenUsage `json:"token_usage"`
	// FinishReason 结束原因
	// 值: "stop", "length", "content_filter"
	FinishReason string `json:"finish_reason"`
}
