package compaction

import (
	"testing"

	"github.com/easyops/compaction-go/pkg/core/message"
)

func TestScanPairs_Basic(t *testing.T) {
	msgs := []message.Message{
		userMsg("question"),
		toolCallMsg("call_1", "search"),
		toolResultMsg("call_1", "search", "result"),
		assistantMsg("answer"),
	}

	pairs := scanPairs(msgs)
	if len(pairs) != 1 {
		t.Fatalf("scanPairs() returned %d pairs, want 1", len(pairs))
	}

	p := pairs[0]
	if p.callIdx != 1 {
		t.Errorf("callIdx = %d, want 1", p.callIdx)
	}
	if len(p.resultIdxs) != 1 || p.resultIdxs[0] != 2 {
		t.Errorf("resultIdxs = %v, want [2]", p.resultIdxs)
	}
	if !p.complete() {
		t.Error("pair with call and result should be complete")
	}
}

func TestScanPairs_MultipleResultsPerCall(t *testing.T) {
	// 一条 assistant 消息发起两个调用，各自有结果
	call := message.NewAssistantToolCallMessage("", []message.ToolCall{
		{ID: "call_a", Name: "read_file"},
		{ID: "call_b", Name: "read_file"},
	})
	msgs := []message.Message{
		userMsg("read both files"),
		call,
		toolResultMsg("call_a", "read_file", "content a"),
		toolResultMsg("call_b", "read_file", "content b"),
	}

	pairs := scanPairs(msgs)
	if len(pairs) != 1 {
		t.Fatalf("scanPairs() returned %d pairs, want 1", len(pairs))
	}
	if got := pairs[0].resultIdxs; len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("resultIdxs = %v, want [2 3]", got)
	}
}

func TestScanPairs_IdenticalPayloadsKeepDistinctIdentity(t *testing.T) {
	// 两条内容完全相同的调用消息按各自下标配对，互不干扰
	msgs := []message.Message{
		toolCallMsg("call_1", "fetch"),
		toolResultMsg("call_1", "fetch", "first"),
		toolCallMsg("call_2", "fetch"),
		toolResultMsg("call_2", "fetch", "second"),
	}

	pairs := scanPairs(msgs)
	if len(pairs) != 2 {
		t.Fatalf("scanPairs() returned %d pairs, want 2", len(pairs))
	}
	if pairs[0].callIdx != 0 || pairs[0].resultIdxs[0] != 1 {
		t.Errorf("first pair = (%d, %v), want (0, [1])", pairs[0].callIdx, pairs[0].resultIdxs)
	}
	if pairs[1].callIdx != 2 || pairs[1].resultIdxs[0] != 3 {
		t.Errorf("second pair = (%d, %v), want (2, [3])", pairs[1].callIdx, pairs[1].resultIdxs)
	}
}

func TestScanPairs_UnmatchedResultSkipped(t *testing.T) {
	// tool_call_id 找不到调用的结果消息不进入任何配对
	msgs := []message.Message{
		userMsg("hello"),
		toolResultMsg("call_missing", "search", "orphan result"),
		assistantMsg("hi"),
	}

	pairs := scanPairs(msgs)
	if len(pairs) != 0 {
		t.Errorf("scanPairs() returned %d pairs, want 0", len(pairs))
	}
}

func TestScanPairs_CallWithoutResultIncomplete(t *testing.T) {
	msgs := []message.Message{
		toolCallMsg("call_1", "search"),
		assistantMsg("never mind"),
	}

	// 没有结果的调用不形成配对
	pairs := scanPairs(msgs)
	if len(pairs) != 0 {
		t.Errorf("scanPairs() returned %d pairs, want 0", len(pairs))
	}
}

func TestPair_Touches(t *testing.T) {
	p := pair{callIdx: 2, resultIdxs: []int{5}}

	tests := []struct {
		name  string
		start int
		want  bool
	}{
		{"both before region", 6, false},
		{"result inside region", 4, true},
		{"call inside region", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.touches(tt.start); got != tt.want {
				t.Errorf("touches(%d) = %v, want %v", tt.start, got, tt.want)
			}
		})
	}
}

func TestExpandPreserveTurns(t *testing.T) {
	conversation := []message.Message{
		userMsg("q1"),
		toolCallMsg("call_1", "search"),
		toolResultMsg("call_1", "search", "r1"),
		assistantMsg("a1"),
	}

	tests := []struct {
		name  string
		msgs  []message.Message
		turns int
		want  int
	}{
		{"zero turns", conversation, 0, 0},
		{"one turn is the final message", conversation, 1, 1},
		{"tool result attaches to its call turn", conversation, 2, 3},
		{"three turns", conversation, 3, 4},
		{"more turns than messages protects everything", conversation, 10, 4},
		{"empty log", nil, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandPreserveTurns(tt.msgs, tt.turns); got != tt.want {
				t.Errorf("expandPreserveTurns(turns=%d) = %d, want %d", tt.turns, got, tt.want)
			}
		})
	}
}

func TestRemovableBoundary(t *testing.T) {
	msgs := []message.Message{userMsg("a"), userMsg("b"), userMsg("c")}

	tests := []struct {
		name     string
		preserve int
		want     int
	}{
		{"no preservation", 0, 3},
		{"partial", 2, 1},
		{"all preserved", 3, 0},
		{"preserve exceeds length", 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := removableBoundary(msgs, tt.preserve); got != tt.want {
				t.Errorf("removableBoundary(preserve=%d) = %d, want %d", tt.preserve, got, tt.want)
			}
		})
	}
}
