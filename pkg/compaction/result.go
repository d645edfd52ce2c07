package compaction

import "github.com/easyops/compaction-go/pkg/core/message"

// Result 描述一次压缩调用的结果。
//
// 每次调用构造一次，不再修改，原样返回给调用方。
type Result struct {
	// Messages 压缩后的消息序列
	Messages []message.Message
	// RemovedCount 被移除（或被替换）的消息数量
	RemovedCount int
	// TokensBefore 压缩前的 Token 数
	TokensBefore int
	// TokensAfter 压缩后的 Token 数
	TokensAfter int
	// Strategy 产生该结果的策略名称（Hybrid 为组合名称）
	Strategy string
}
