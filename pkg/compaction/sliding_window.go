package compaction

import (
	"context"

	"github.com/easyops/compaction-go/pkg/core/message"
)

// SlidingWindow 滑动窗口策略：最简单的缩减器。
//
// 把输入分为不可触碰的末尾保留段和可移除的前缀，反复弹出前缀中
// 最旧的消息并重新测量，直到达标或前缀耗尽。不修复被拆散的配对；
// 需要配对安全的调用方应选择 SelectivePruning。
type SlidingWindow struct {
	counter TokenCounter
}

// NewSlidingWindow 创建滑动窗口策略。
func NewSlidingWindow(counter TokenCounter) *SlidingWindow {
	return &SlidingWindow{counter: counter}
}

// Name 返回策略名称。
func (s *SlidingWindow) Name() string {
	return string(StrategyNameSlidingWindow)
}

// Compact 从头部移除消息直到达标。
// 永远从头部移除；即使移除保留段能帮助达标也绝不触碰保留段。
func (s *SlidingWindow) Compact(_ context.Context, msgs []message.Message, targetTokens, preserveRecent int) (*Result, error) {
	before := s.counter.CountMessages(msgs)
	if before <= targetTokens {
		return noopResult(s.Name(), msgs, before), nil
	}

	boundary := removableBoundary(msgs, preserveRecent)

	start := 0
	for start < boundary {
		if s.counter.CountMessages(msgs[start:]) <= targetTokens {
			break
		}
		start++
	}

	out := message.CloneAll(msgs[start:])
	return &Result{
		Messages:     out,
		RemovedCount: start,
		TokensBefore: before,
		TokensAfter:  s.counter.CountMessages(out),
		Strategy:     s.Name(),
	}, nil
}

// 编译时接口检查
var _ Strategy = (*SlidingWindow)(nil)
