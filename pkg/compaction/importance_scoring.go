package compaction

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/easyops/compaction-go/pkg/core/errors"
	"github.com/easyops/compaction-go/pkg/core/llm"
	"github.com/easyops/compaction-go/pkg/core/message"
)

// ImportanceScoring 重要性评分策略。
//
// 用一次批量模型调用为每个可移除单元打分，然后从最低分开始移除，
// 直到达标或没有可移除单元。配对作为一个单元整体评分和移除，
// 保证配对不变式。同分时最旧的先移除。
type ImportanceScoring struct {
	counter TokenCounter
	backend llm.Provider
}

// NewImportanceScoring 创建重要性评分策略。
func NewImportanceScoring(counter TokenCounter, backend llm.Provider) *ImportanceScoring {
	return &ImportanceScoring{counter: counter, backend: backend}
}

// Name 返回策略名称。
func (s *ImportanceScoring) Name() string {
	return string(StrategyNameImportanceScoring)
}

// scoringUnit 一个原子移除单元：单条消息，或一组完整配对。
type scoringUnit struct {
	// msgIdxs 单元包含的消息下标（升序）
	msgIdxs []int
	// score 模型给出的重要性分数
	score float64
}

// unitScore 模型返回的单元评分条目。
type unitScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Compact 评分后从低到高移除单元直到达标。
func (s *ImportanceScoring) Compact(ctx context.Context, msgs []message.Message, targetTokens, preserveRecent int) (*Result, error) {
	before := s.counter.CountMessages(msgs)
	if before <= targetTokens {
		return noopResult(s.Name(), msgs, before), nil
	}

	if s.backend == nil {
		return nil, errors.ErrBackendRequired
	}

	preservedStart := removableBoundary(msgs, preserveRecent)
	units := partitionUnits(msgs, preservedStart)
	if len(units) == 0 {
		// 没有可移除单元，无法继续缩减
		return noopResult(s.Name(), msgs, before), nil
	}

	if err := s.scoreUnits(ctx, msgs, units); err != nil {
		return nil, err
	}

	// 分数升序；同分按原始顺序（最旧的先移除）
	order := make([]int, len(units))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return units[order[a]].score < units[order[b]].score
	})

	out := message.CloneAll(msgs)
	dropped := make(map[int]bool)
	removed := 0

	for _, unitIdx := range order {
		for _, msgIdx := range units[unitIdx].msgIdxs {
			dropped[msgIdx] = true
			removed++
		}
		if s.counter.CountMessages(applyDrops(out, dropped)) <= targetTokens {
			break
		}
	}

	final := applyDrops(out, dropped)
	return &Result{
		Messages:     final,
		RemovedCount: removed,
		TokensBefore: before,
		TokensAfter:  s.counter.CountMessages(final),
		Strategy:     s.Name(),
	}, nil
}

// scoreUnits 用单次批量调用为全部单元打分。
func (s *ImportanceScoring) scoreUnits(ctx context.Context, msgs []message.Message, units []scoringUnit) error {
	req := llm.Request{
		Messages: []message.Message{
			message.NewSystemMessage(scoreSystemPrompt),
			message.NewUserMessage(renderScoringUnits(msgs, units)),
		},
	}

	resp, err := s.backend.Generate(ctx, req)
	if err != nil {
		return errors.WrapError(err, "score message importance")
	}

	var scores []unitScore
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &scores); err != nil {
		return errors.WrapError(errors.ErrInvalidResponse, "parse importance scores")
	}

	for _, sc := range scores {
		if sc.Index >= 0 && sc.Index < len(units) {
			units[sc.Index].score = sc.Score
		}
	}
	return nil
}

// partitionUnits 把非保留区划分为原子移除单元。
//
// 完整配对构成一个单元；其余消息各自为一个单元。未配对的 tool
// 结果不进入任何单元，留在原地（防御性处理，见错误处理约定）。
// 配对任一成员落入保留区时整个配对不可移除。
func partitionUnits(msgs []message.Message, preservedStart int) []scoringUnit {
	inPair := make(map[int]bool)
	pairBlocked := make(map[int]bool)

	var units []scoringUnit
	for _, p := range scanPairs(msgs) {
		if !p.complete() {
			continue
		}
		idxs := append([]int{p.callIdx}, p.resultIdxs...)
		for _, idx := range idxs {
			inPair[idx] = true
		}
		if p.touches(preservedStart) {
			for _, idx := range idxs {
				pairBlocked[idx] = true
			}
			continue
		}
		units = append(units, scoringUnit{msgIdxs: idxs})
	}

	for i := 0; i < preservedStart; i++ {
		if inPair[i] || pairBlocked[i] {
			continue
		}
		if msgs[i].IsToolResult() {
			continue // 未配对的结果永不选中
		}
		units = append(units, scoringUnit{msgIdxs: []int{i}})
	}

	// 按单元首消息位置排序，保证同分时最旧优先
	sort.SliceStable(units, func(a, b int) bool {
		return units[a].msgIdxs[0] < units[b].msgIdxs[0]
	})
	return units
}

// 编译时接口检查
var _ Strategy = (*ImportanceScoring)(nil)
