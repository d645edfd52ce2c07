package compaction

import (
	"context"

	"github.com/easyops/compaction-go/pkg/core/errors"
	"github.com/easyops/compaction-go/pkg/core/llm"
	"github.com/easyops/compaction-go/pkg/core/message"
)

// SummarizeOlder 旧消息总结策略。
//
// 调用模型后端把较旧的、非保留的连续前缀压缩为一条摘要消息。
// 只总结完整配对：摘要边界绝不把调用和结果拆到两侧。模型调用是
// 本策略唯一的挂起点；调用失败时错误原样向上传播，不产生部分结果。
type SummarizeOlder struct {
	counter TokenCounter
	backend llm.Provider
}

// NewSummarizeOlder 创建旧消息总结策略。
func NewSummarizeOlder(counter TokenCounter, backend llm.Provider) *SummarizeOlder {
	return &SummarizeOlder{counter: counter, backend: backend}
}

// Name 返回策略名称。
func (s *SummarizeOlder) Name() string {
	return string(StrategyNameSummarizeOlder)
}

// Compact 用一条摘要消息替换旧消息前缀。
func (s *SummarizeOlder) Compact(ctx context.Context, msgs []message.Message, targetTokens, preserveRecent int) (*Result, error) {
	before := s.counter.CountMessages(msgs)
	if before <= targetTokens {
		return noopResult(s.Name(), msgs, before), nil
	}

	if s.backend == nil {
		return nil, errors.ErrBackendRequired
	}

	boundary := summarizeBoundary(msgs, removableBoundary(msgs, preserveRecent))
	if boundary <= 0 {
		// 没有可总结的前缀，放弃本次缩减
		return noopResult(s.Name(), msgs, before), nil
	}

	prefix := msgs[:boundary]
	req := llm.Request{
		Messages: []message.Message{
			message.NewSystemMessage(summarizeSystemPrompt),
			message.NewUserMessage(renderTranscript(prefix)),
		},
	}

	resp, err := s.backend.Generate(ctx, req)
	if err != nil {
		return nil, errors.WrapError(err, "summarize older messages")
	}
	if resp.Content == "" {
		return nil, errors.ErrInvalidResponse
	}

	summary := message.NewSystemMessage(summaryPrefix + resp.Content)
	out := make([]message.Message, 0, len(msgs)-boundary+1)
	out = append(out, summary)
	out = append(out, msgs[boundary:]...)

	after := s.counter.CountMessages(out)
	if after > before {
		// 摘要反而更长：放弃替换，保证 Token 数单调不增
		return noopResult(s.Name(), msgs, before), nil
	}

	return &Result{
		Messages:     out,
		RemovedCount: boundary,
		TokensBefore: before,
		TokensAfter:  after,
		Strategy:     s.Name(),
	}, nil
}

// summarizeBoundary 收缩前缀边界，保证没有配对横跨摘要/保留两侧。
func summarizeBoundary(msgs []message.Message, boundary int) int {
	pairs := scanPairs(msgs)
	for changed := true; changed; {
		changed = false
		for _, p := range pairs {
			if p.callIdx >= boundary {
				continue
			}
			for _, idx := range p.resultIdxs {
				if idx >= boundary {
					boundary = p.callIdx
					changed = true
					break
				}
			}
		}
	}
	return boundary
}

// 编译时接口检查
var _ Strategy = (*SummarizeOlder)(nil)
