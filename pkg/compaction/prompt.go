package compaction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/easyops/compaction-go/pkg/core/message"
)

// summarizeSystemPrompt 指导模型生成对话前缀的接续摘要。
const summarizeSystemPrompt = `你是一个对话压缩助手。请把给定的对话历史压缩成一段简洁的摘要，
供后续对话继续使用。摘要需要保留：

1. 用户的核心诉求和已明确的约束
2. 已完成的工作和产出（文件、结论、数据等）
3. 重要的中间发现和已做出的决定
4. 尚未解决的问题和下一步计划

直接输出摘要正文，不要添加任何前后缀说明。`

// scoreSystemPrompt 指导模型为对话单元打重要性分。
const scoreSystemPrompt = `你是一个对话重要性评估助手。下面给出若干编号的对话单元，
请为每个单元打 0-10 的重要性分数（10 = 对任务至关重要，0 = 可安全丢弃）。

只输出一个 JSON 数组，格式为：
[{"index": 0, "score": 7.5}, {"index": 1, "score": 2.0}]

不要输出任何其他内容。`

// summaryPrefix 摘要消息正文的固定前缀。
const summaryPrefix = "[Summary of earlier conversation]\n"

// renderTranscript 把消息序列渲染为供模型阅读的纯文本转写。
func renderTranscript(msgs []message.Message) string {
	var sb strings.Builder
	for _, msg := range msgs {
		sb.WriteString(string(msg.Role))
		sb.WriteString(": ")
		if msg.Content != "" {
			sb.WriteString(msg.Content)
		}
		for _, tc := range msg.ToolCalls {
			argsJSON, _ := json.Marshal(tc.Arguments)
			fmt.Fprintf(&sb, " -> %s(%s)", tc.Name, string(argsJSON))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderScoringUnits 把待评分单元渲染为编号列表。
func renderScoringUnits(msgs []message.Message, units []scoringUnit) string {
	var sb strings.Builder
	for i, u := range units {
		fmt.Fprintf(&sb, "--- unit %d ---\n", i)
		for _, idx := range u.msgIdxs {
			sb.WriteString(renderTranscript(msgs[idx : idx+1]))
		}
	}
	return sb.String()
}

// extractJSON 剥离模型输出中可能包裹的 Markdown 代码栅栏。
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	// 防御性兜底：截取首个 [ 到最后一个 ] 之间的内容
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
