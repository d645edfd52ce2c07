package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称
const (
	// MetricCompactions 压缩调用次数
	MetricCompactions = "compaction.invocations"
	// MetricMessagesRemoved 被移除的消息数
	MetricMessagesRemoved = "compaction.messages.removed"
	// MetricTokensRemoved 被移除的 Token 数
	MetricTokensRemoved = "compaction.tokens.removed"
	// MetricDuration 压缩耗时
	MetricDuration = "compaction.duration"
)

// 属性键
const (
	// AttrStrategy 策略名称
	AttrStrategy = "compaction.strategy"
	// AttrOutcome 调用结局（compacted, noop, error）
	AttrOutcome = "compaction.outcome"
)

// CompactionMetrics 压缩引擎的指标集合。
type CompactionMetrics struct {
	invocations     metric.Int64Counter
	messagesRemoved metric.Int64Counter
	tokensRemoved   metric.Int64Counter
	duration        metric.Float64Histogram
}

// NewCompactionMetrics 从全局 MeterProvider 创建指标集合。
func NewCompactionMetrics() (*CompactionMetrics, error) {
	meter := otel.GetMeterProvider().Meter("github.com/easyops/compaction-go")

	invocations, err := meter.Int64Counter(MetricCompactions,
		metric.WithDescription("Number of compaction invocations"))
	if err != nil {
		return nil, err
	}

	messagesRemoved, err := meter.Int64Counter(MetricMessagesRemoved,
		metric.WithDescription("Number of messages removed by compaction"))
	if err != nil {
		return nil, err
	}

	tokensRemoved, err := meter.Int64Counter(MetricTokensRemoved,
		metric.WithDescription("Number of tokens removed by compaction"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Compaction duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &CompactionMetrics{
		invocations:     invocations,
		messagesRemoved: messagesRemoved,
		tokensRemoved:   tokensRemoved,
		duration:        duration,
	}, nil
}

// RecordCompaction 记录一次压缩调用。
func (m *CompactionMetrics) RecordCompaction(ctx context.Context, strategy, outcome string, removed, tokensRemoved int, elapsed time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(AttrStrategy, strategy),
		attribute.String(AttrOutcome, outcome),
	)

	m.invocations.Add(ctx, 1, attrs)
	m.messagesRemoved.Add(ctx, int64(removed), attrs)
	if tokensRemoved > 0 {
		m.tokensRemoved.Add(ctx, int64(tokensRemoved), attrs)
	}
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
