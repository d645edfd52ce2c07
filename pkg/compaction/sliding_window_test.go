package compaction

import (
	"context"
	"testing"

	"github.com/easyops/compaction-go/pkg/core/message"
)

func TestSlidingWindow_NoopWhenUnderTarget(t *testing.T) {
	s := NewSlidingWindow(fixedCounter{perMessage: 100})
	msgs := []message.Message{userMsg("a"), assistantMsg("b")}

	res, err := s.Compact(context.Background(), msgs, 500, 0)
	if err != nil {
		t.Fatalf("Compact() error = %v", err)
	}

	if res.RemovedCount != 0 {
		t.Errorf("RemovedCount = %d, want 0", res.RemovedCount)
	}
	if res.TokensBefore != res.TokensAfter {
		t.Errorf("noop should not change tokens: before=%d after=%d", res.TokensBefore, res.TokensAfter)
	}
	if len(res.Messages) != len(msgs) {
		t.Errorf("noop should keep all %d messages, got %d", len(msgs), len(res.Messages))
	}
}

func TestSlidingWindow_Idempotent(t *testing.T) {
	s := NewSlidingWindow(fixedCounter{perMessage: 100})
	msgs := make([]message.Message, 10)
	for i := range msgs {
		msgs[i] = userMsg("message")
	}

	first, err := s.Compact(context.Background(), msgs, 500, 2)
	if err != nil {
		t.Fatalf("first Compact() error = %v", err)
	}

	second, err := s.Compact(context.Background(), first.Messages, 500, 2)
	if err != nil {
		t.Fatalf("second Compact() error = %v", err)
	}

	if second.RemovedCount != 0 {
		t.Errorf("second pass RemovedCount = %d, want 0", second.RemovedCount)
	}
	if len(second.Messages) != len(first.Messages) {
		t.Errorf("second pass changed message count: %d -> %d", len(first.Messages), len(second.Messages))
	}
}

func TestSlidingWindow_RemovesOldestUntilTarget(t *testing.T) {
	// 10 条消息每条 150 token，目标 500，保留末尾 2 条：
	// 移除最旧的 7 条后剩 3 条共 450，达标即停
	s := NewSlidingWindow(fixedCounter{perMessage: 150})
	msgs := make([]message.Message, 10)
	for i := range msgs {
		msgs[i] = userMsg("filler")
	}
	last := assistantMsg("most recent answer")
	msgs[9] = last

	res, err := s.Compact(context.Background(), msgs, 500, 2)
	if err != nil {
		t.Fatalf("Compact() error = %v", err)
	}

	if res.RemovedCount != 7 {
		t.Errorf("RemovedCount = %d, want 7", res.RemovedCount)
	}
	if len(res.Messages) != 3 {
		t.Errorf("remaining messages = %d, want 3", len(res.Messages))
	}
	if res.TokensAfter != 450 {
		t.Errorf("TokensAfter = %d, want 450", res.TokensAfter)
	}
	if res.TokensAfter > res.TokensBefore {
		t.Errorf("token count must not grow: before=%d after=%d", res.TokensBefore, res.TokensAfter)
	}
	if got := res.Messages[len(res.Messages)-1]; got.ID != last.ID {
		t.Error("most recent message should survive untouched")
	}
	if res.Strategy != "sliding_window" {
		t.Errorf("Strategy = %q, want %q", res.Strategy, "sliding_window")
	}
}

func TestSlidingWindow_NeverTouchesPreservedTail(t *testing.T) {
	// 目标低到只有删光才能达标，保留区依然原样保留
	s := NewSlidingWindow(fixedCounter{perMessage: 100})
	msgs := []message.Message{
		userMsg("old 1"),
		userMsg("old 2"),
		userMsg("recent 1"),
		userMsg("recent 2"),
	}

	res, err := s.Compact(context.Background(), msgs, 50, 2)
	if err != nil {
		t.Fatalf("Compact() error = %v", err)
	}

	if len(res.Messages) != 2 {
		t.Fatalf("remaining messages = %d, want the 2 preserved", len(res.Messages))
	}
	if res.Messages[0].Content != "recent 1" || res.Messages[1].Content != "recent 2" {
		t.Errorf("preserved tail altered: %q, %q", res.Messages[0].Content, res.Messages[1].Content)
	}
	// 两条保留消息共 200 > 50 是允许的：尽力而为，但绝不动保留区
	if res.TokensAfter != 200 {
		t.Errorf("TokensAfter = %d, want 200", res.TokensAfter)
	}
}

func TestSlidingWindow_EmptyLog(t *testing.T) {
	s := NewSlidingWindow(fixedCounter{perMessage: 100})

	res, err := s.Compact(context.Background(), nil, 500, 2)
	if err != nil {
		t.Fatalf("Compact() error = %v", err)
	}
	if res.RemovedCount != 0 || len(res.Messages) != 0 {
		t.Errorf("empty log should be a noop, got removed=%d len=%d", res.RemovedCount, len(res.Messages))
	}
}

func TestSlidingWindow_DoesNotMutateInput(t *testing.T) {
	s := NewSlidingWindow(fixedCounter{perMessage: 100})
	msgs := []message.Message{userMsg("a"), userMsg("b"), userMsg("c")}
	originalFirst := msgs[0].Content

	if _, err := s.Compact(context.Background(), msgs, 150, 0); err != nil {
		t.Fatalf("Compact() error = %v", err)
	}

	if len(msgs) != 3 || msgs[0].Content != originalFirst {
		t.Error("input slice must not be mutated")
	}
}
