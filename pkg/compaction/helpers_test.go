package compaction

import (
	"context"

	"github.com/easyops/compaction-go/pkg/core/llm"
	"github.com/easyops/compaction-go/pkg/core/message"
)

// fixedCounter 每条消息固定计 perMessage 个 token，便于精确断言
type fixedCounter struct {
	perMessage int
}

func (c fixedCounter) Count(text string) int {
	return len(text)
}

func (c fixedCounter) CountMessages(msgs []message.Message) int {
	return len(msgs) * c.perMessage
}

// contentCounter 按内容字符数计数，用于验证摘要变长时的单调性保护
type contentCounter struct{}

func (contentCounter) Count(text string) int {
	return len(text)
}

func (contentCounter) CountMessages(msgs []message.Message) int {
	total := 0
	for _, msg := range msgs {
		total += len(msg.Content)
	}
	return total
}

// fakeBackend 记录请求并返回预设响应的模型后端
type fakeBackend struct {
	response string
	err      error
	requests []llm.Request
}

func (f *fakeBackend) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.response, FinishReason: "stop"}, nil
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Model() string { return "fake-model" }

func (f *fakeBackend) Close() error { return nil }

var _ llm.Provider = (*fakeBackend)(nil)

// userMsg 构造带内容的用户消息
func userMsg(content string) message.Message {
	return message.NewUserMessage(content)
}

// assistantMsg 构造带内容的助手消息
func assistantMsg(content string) message.Message {
	return message.NewAssistantMessage(content)
}

// toolCallMsg 构造发起单个工具调用的助手消息
func toolCallMsg(callID, toolName string) message.Message {
	return message.NewAssistantToolCallMessage("", []message.ToolCall{
		{ID: callID, Name: toolName, Arguments: map[string]interface{}{"q": "x"}},
	})
}

// toolResultMsg 构造应答指定调用的工具结果消息
func toolResultMsg(callID, toolName, content string) message.Message {
	return message.NewToolMessage(callID, toolName, content)
}

// conversationWithPair 构造含一组完整配对的典型对话:
// user, assistant(call), tool(result), assistant
func conversationWithPair(callID string) []message.Message {
	return []message.Message{
		userMsg("What does the latest report say?"),
		toolCallMsg(callID, "search_docs"),
		toolResultMsg(callID, "search_docs", "The report shows a 12% increase."),
		assistantMsg("According to the report, usage grew 12%."),
	}
}
