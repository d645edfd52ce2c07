package compaction

import (
	"context"

	"github.com/easyops/compaction-go/pkg/core/errors"
	"github.com/easyops/compaction-go/pkg/core/llm"
	"github.com/easyops/compaction-go/pkg/core/message"
)

// Strategy 定义压缩策略的统一契约。
//
// 每个策略直接实现完整的 Compact 入口，没有可被绕过的模板基类；
// Hybrid 的顺序编排逻辑由 Hybrid 自己持有。
type Strategy interface {
	// Name 返回策略的稳定名称。
	Name() string

	// Compact 将消息序列缩减到目标 Token 数以内。
	//
	// 约定：
	//   - 输入是调用方日志的快照，策略返回新序列，绝不原地修改；
	//   - 输入已在目标以内时返回无操作结果（RemovedCount=0，消息原样）；
	//   - preserveRecent 条末尾消息不得被移除或修改；
	//   - 失败时返回错误且不产生部分结果。
	Compact(ctx context.Context, msgs []message.Message, targetTokens, preserveRecent int) (*Result, error)
}

// StrategyName 压缩策略的封闭枚举。
type StrategyName string

const (
	// StrategyNameSlidingWindow 滑动窗口策略
	StrategyNameSlidingWindow StrategyName = "sliding_window"
	// StrategyNameSelectivePruning 选择性剪枝策略
	StrategyNameSelectivePruning StrategyName = "selective_pruning"
	// StrategyNameSummarizeOlder 旧消息总结策略
	StrategyNameSummarizeOlder StrategyName = "summarize_older"
	// StrategyNameImportanceScoring 重要性评分策略
	StrategyNameImportanceScoring StrategyName = "importance_scoring"
	// StrategyNameHybrid 组合策略
	StrategyNameHybrid StrategyName = "hybrid"
)

// ParseStrategyName 解析策略名称字符串。
// 未知名称返回配置错误。
func ParseStrategyName(s string) (StrategyName, error) {
	switch StrategyName(s) {
	case StrategyNameSlidingWindow, StrategyNameSelectivePruning,
		StrategyNameSummarizeOlder, StrategyNameImportanceScoring,
		StrategyNameHybrid:
		return StrategyName(s), nil
	default:
		return "", errors.WrapError(errors.ErrUnknownStrategy, s)
	}
}

// NewStrategy 根据名称构造策略实例。
//
// 策略集合是封闭的，这里的 switch 保持穷尽；需要模型后端的策略
// 在构造时（而非压缩时）校验 backend 可用。
func NewStrategy(name StrategyName, counter TokenCounter, backend llm.Provider) (Strategy, error) {
	if counter == nil {
		counter = DefaultTokenCounter()
	}

	switch name {
	case StrategyNameSlidingWindow:
		return NewSlidingWindow(counter), nil
	case StrategyNameSelectivePruning:
		return NewSelectivePruning(counter), nil
	case StrategyNameSummarizeOlder:
		if backend == nil {
			return nil, errors.WrapError(errors.ErrBackendRequired, string(name))
		}
		return NewSummarizeOlder(counter, backend), nil
	case StrategyNameImportanceScoring:
		if backend == nil {
			return nil, errors.WrapError(errors.ErrBackendRequired, string(name))
		}
		return NewImportanceScoring(counter, backend), nil
	case StrategyNameHybrid:
		return NewHybrid(counter), nil
	default:
		return nil, errors.WrapError(errors.ErrUnknownStrategy, string(name))
	}
}

// noopResult 构造无操作结果：输入已在目标以内，消息原样返回。
// 这使得所有策略对足够小的日志幂等。
func noopResult(name string, msgs []message.Message, tokens int) *Result {
	return &Result{
		Messages:     message.CloneAll(msgs),
		RemovedCount: 0,
		TokensBefore: tokens,
		TokensAfter:  tokens,
		Strategy:     name,
	}
}
