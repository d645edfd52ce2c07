package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/easyops/compaction-go/pkg/core/message"
)

// SelectivePruning 选择性剪枝策略。
//
// 单次扫描找出所有 (调用, 结果) 配对，按最旧优先处理：把 assistant
// 调用消息替换为一条简短的 system 摘要消息，并整体移除对应的 tool
// 结果消息。每处理一对重新测量，达标即停。非工具消息和未配对的
// 调用/结果保持不动。
type SelectivePruning struct {
	counter TokenCounter
}

// NewSelectivePruning 创建选择性剪枝策略。
func NewSelectivePruning(counter TokenCounter) *SelectivePruning {
	return &SelectivePruning{counter: counter}
}

// Name 返回策略名称。
func (s *SelectivePruning) Name() string {
	return string(StrategyNameSelectivePruning)
}

// Compact 逐对剪除工具调用配对直到达标。
//
// RemovedCount 统计被替换的调用消息，不含被一并丢弃的结果消息。
// 配对按消息下标这一稳定身份定位（而非 tool_calls 负载的结构相等），
// 两条内容相同的调用消息不会互相干扰。
func (s *SelectivePruning) Compact(_ context.Context, msgs []message.Message, targetTokens, preserveRecent int) (*Result, error) {
	before := s.counter.CountMessages(msgs)
	if before <= targetTokens {
		return noopResult(s.Name(), msgs, before), nil
	}

	out := message.CloneAll(msgs)
	preservedStart := removableBoundary(out, preserveRecent)
	dropped := make(map[int]bool)
	replaced := 0

	for _, p := range scanPairs(out) {
		// 配对不完整，或任一成员落入保留区：跳过
		if !p.complete() || p.touches(preservedStart) {
			continue
		}

		out[p.callIdx] = pruneSummaryMessage(out[p.callIdx])
		for _, idx := range p.resultIdxs {
			dropped[idx] = true
		}
		replaced++

		if s.counter.CountMessages(applyDrops(out, dropped)) <= targetTokens {
			break
		}
	}

	final := applyDrops(out, dropped)
	return &Result{
		Messages:     final,
		RemovedCount: replaced,
		TokensBefore: before,
		TokensAfter:  s.counter.CountMessages(final),
		Strategy:     s.Name(),
	}, nil
}

// pruneSummaryMessage 构造替换调用消息的 system 摘要。
func pruneSummaryMessage(call message.Message) message.Message {
	names := call.ToolNames()
	return message.NewSystemMessage(
		fmt.Sprintf("[Tool calls executed: %s]", strings.Join(names, ", ")))
}

// applyDrops 返回去掉被标记下标后的新序列。
func applyDrops(msgs []message.Message, dropped map[int]bool) []message.Message {
	if len(dropped) == 0 {
		return message.CloneAll(msgs)
	}
	out := make([]message.Message, 0, len(msgs)-len(dropped))
	for i, msg := range msgs {
		if dropped[i] {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// 编译时接口检查
var _ Strategy = (*SelectivePruning)(nil)
