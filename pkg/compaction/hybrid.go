package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/easyops/compaction-go/pkg/core/message"
)

// Hybrid 组合策略：持有一个有序的子策略列表。
//
// 只测量一次；已达标时返回标准无操作结果。否则依次调用子策略，
// 把前一个的输出作为后一个的输入，运行中的 Token 数一旦达标立即
// 停止。RemovedCount 累加所有被调用子策略的结果，组合名称只记录
// 实际被调用的子策略，例如 hybrid(selective_pruning+sliding_window)。
type Hybrid struct {
	counter TokenCounter
	subs    []Strategy
}

// NewHybrid 创建组合策略。
// 未指定子策略时默认为 SelectivePruning、SlidingWindow。
func NewHybrid(counter TokenCounter, subs ...Strategy) *Hybrid {
	if len(subs) == 0 {
		subs = []Strategy{
			NewSelectivePruning(counter),
			NewSlidingWindow(counter),
		}
	}
	return &Hybrid{counter: counter, subs: subs}
}

// Name 返回策略名称。
func (h *Hybrid) Name() string {
	return string(StrategyNameHybrid)
}

// Compact 依次运行子策略直到达标。
func (h *Hybrid) Compact(ctx context.Context, msgs []message.Message, targetTokens, preserveRecent int) (*Result, error) {
	before := h.counter.CountMessages(msgs)
	if before <= targetTokens {
		// 未调用任何子策略，名称不带组合后缀
		return noopResult(h.Name(), msgs, before), nil
	}

	current := msgs
	removed := 0
	invoked := make([]string, 0, len(h.subs))
	after := before

	for _, sub := range h.subs {
		res, err := sub.Compact(ctx, current, targetTokens, preserveRecent)
		if err != nil {
			return nil, err
		}

		invoked = append(invoked, sub.Name())
		removed += res.RemovedCount
		current = res.Messages
		after = res.TokensAfter

		if after <= targetTokens {
			break
		}
	}

	return &Result{
		Messages:     message.CloneAll(current),
		RemovedCount: removed,
		TokensBefore: before,
		TokensAfter:  after,
		Strategy:     fmt.Sprintf("%s(%s)", h.Name(), strings.Join(invoked, "+")),
	}, nil
}

// 编译时接口检查
var _ Strategy = (*Hybrid)(nil)
