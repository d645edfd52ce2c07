package compaction

import (
	"sync"

	"github.com/easyops/compaction-go/pkg/core/message"
)

// Log 是按插入顺序排列的对话消息日志。
//
// 日志由 Manager 独占持有并写入；策略只消费 Snapshot 返回的独立副本。
// 读方只会看到压缩前或压缩后的完整状态，不存在中间状态。
type Log struct {
	mu       sync.RWMutex
	messages []message.Message
}

// NewLog 创建空的消息日志。
func NewLog() *Log {
	return &Log{
		messages: make([]message.Message, 0),
	}
}

// Append 追加一条消息，保持插入顺序。
func (l *Log) Append(msg message.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg.EnsureID()
	l.messages = append(l.messages, msg)
}

// AppendAll 按顺序追加多条消息。
func (l *Log) AppendAll(msgs ...message.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range msgs {
		msgs[i].EnsureID()
	}
	l.messages = append(l.messages, msgs...)
}

// Snapshot 返回当前日志内容的独立副本。
func (l *Log) Snapshot() []message.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]message.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// ReplaceAll 用给定序列原子地替换全部日志内容。
// Manager 在压缩完整完成后调用；失败的压缩不会执行到这里。
func (l *Log) ReplaceAll(msgs []message.Message) {
	replacement := make([]message.Message, len(msgs))
	copy(replacement, msgs)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = replacement
}

// Clear 清空日志。
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:0]
}

// Len 返回当前消息数量。
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
