package compaction

import (
	"github.com/easyops/compaction-go/pkg/core/message"
)

// pair 表示一组 (assistant 工具调用, tool 结果) 配对。
//
// 配对是移除的原子单元：感知配对的策略绝不让调用失去结果、
// 或让结果失去调用。
type pair struct {
	// callIdx 发起调用的 assistant 消息下标
	callIdx int
	// resultIdxs 应答该调用的 tool 消息下标（升序）
	resultIdxs []int
}

// complete 检查配对是否同时具有调用和至少一个结果。
func (p *pair) complete() bool {
	return len(p.resultIdxs) > 0
}

// touches 检查配对是否有消息落在 [start, len) 区间内。
func (p *pair) touches(start int) bool {
	if p.callIdx >= start {
		return true
	}
	for _, idx := range p.resultIdxs {
		if idx >= start {
			return true
		}
	}
	return false
}

// scanPairs 单次扫描消息序列，按 tool_call_id 匹配出所有配对。
//
// 匹配使用消息下标这一稳定身份，而不是对 tool_calls 负载做结构相等
// 比较。tool_call_id 找不到更早调用的 tool 消息视为未配对，不会出现
// 在任何配对中，感知配对的策略因此永远不会选中它。
func scanPairs(msgs []message.Message) []pair {
	// 调用 ID -> 发起调用的消息下标
	callIndex := make(map[string]int)
	pairIndex := make(map[int]*pair)
	order := make([]int, 0)

	for i, msg := range msgs {
		if msg.Role == message.RoleAssistant && msg.HasToolCalls() {
			for _, tc := range msg.ToolCalls {
				if tc.ID == "" {
					continue
				}
				if _, exists := callIndex[tc.ID]; !exists {
					callIndex[tc.ID] = i
				}
			}
			continue
		}

		if msg.IsToolResult() {
			callIdx, ok := callIndex[msg.ToolCallID]
			if !ok || callIdx >= i {
				continue // 未配对，防御性跳过
			}
			p, exists := pairIndex[callIdx]
			if !exists {
				p = &pair{callIdx: callIdx}
				pairIndex[callIdx] = p
				order = append(order, callIdx)
			}
			p.resultIdxs = append(p.resultIdxs, i)
		}
	}

	// 按调用位置升序返回（最旧的在前）
	result := make([]pair, 0, len(order))
	for _, callIdx := range order {
		result = append(result, *pairIndex[callIdx])
	}
	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && result[j].callIdx < result[j-1].callIdx; j-- {
			result[j], result[j-1] = result[j-1], result[j]
		}
	}
	return result
}

// expandPreserveTurns 将"保留最近 N 轮"换算为末尾消息条数。
//
// 一轮通常是一条消息，但 assistant 工具调用与其全部结果合计为一轮。
// 从尾部反向遍历：tool 结果附属于其前方的调用消息，不单独计轮。
func expandPreserveTurns(msgs []message.Message, turns int) int {
	if turns <= 0 {
		return 0
	}

	counted := 0
	i := len(msgs) - 1
	for i >= 0 {
		// 工具结果归属于它应答的调用所在轮
		for i >= 0 && msgs[i].Role == message.RoleTool {
			i--
		}
		if i < 0 {
			break
		}
		counted++
		if counted == turns {
			return len(msgs) - i
		}
		i--
	}
	return len(msgs)
}

// removableBoundary 返回保留区的起始下标。
// preserveRecent 大于消息总数时整个序列都受保护。
func removableBoundary(msgs []message.Message, preserveRecent int) int {
	if preserveRecent <= 0 {
		return len(msgs)
	}
	if preserveRecent >= len(msgs) {
		return 0
	}
	return len(msgs) - preserveRecent
}
