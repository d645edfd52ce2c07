package compaction

import (
	"context"
	"time"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/easyops/compaction-go/pkg/core/config"
	"github.com/easyops/compaction-go/pkg/core/llm"
	"github.com/easyops/compaction-go/pkg/core/message"
	"github.com/easyops/compaction-go/pkg/otel"
)

// Manager 上下文管理器：持有消息日志和已配置的压缩策略。
//
// Manager 是日志的唯一写入方。Compact 只在策略完整完成缩减后才替换
// 日志内容，失败的压缩绝不部分修改日志。同一实例的 Compact 不得与
// 另一个 Compact 或 Append 并发调用，调用方需要自行串行化
// （每个会话同一时刻至多一个压缩在途）。
type Manager struct {
	log      *Log
	cfg      config.CompactionConfig
	counter  TokenCounter
	backend  llm.Provider
	strategy Strategy
	logger   otel.Logger
	metrics  *otel.CompactionMetrics
	tracer   trace.Tracer
}

// ManagerOption 配置 Manager。
type ManagerOption func(*Manager)

// WithTokenCounter 设置 Token 计数器。
func WithTokenCounter(counter TokenCounter) ManagerOption {
	return func(m *Manager) {
		m.counter = counter
	}
}

// WithBackend 设置模型后端。
// summarize_older 和 importance_scoring 策略需要后端。
func WithBackend(backend llm.Provider) ManagerOption {
	return func(m *Manager) {
		m.backend = backend
	}
}

// WithStrategy 显式指定策略实例，覆盖配置中的策略名称。
func WithStrategy(s Strategy) ManagerOption {
	return func(m *Manager) {
		m.strategy = s
	}
}

// WithLogger 设置日志器。
func WithLogger(logger otel.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics 设置指标集合。
func WithMetrics(metrics *otel.CompactionMetrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager 创建上下文管理器。
//
// 配置错误（未知策略名、目标不小于触发阈值）在这里报出，
// 压缩过程中不再出现配置类错误。
func NewManager(cfg config.CompactionConfig, opts ...ManagerOption) (*Manager, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		log:    NewLog(),
		cfg:    cfg,
		logger: otel.NewNoopLogger(),
		tracer: otelapi.Tracer("github.com/easyops/compaction-go/pkg/compaction"),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.counter == nil {
		m.counter = DefaultTokenCounter()
	}

	if m.strategy == nil {
		name, err := ParseStrategyName(m.cfg.Strategy)
		if err != nil {
			return nil, err
		}
		strategy, err := NewStrategy(name, m.counter, m.backend)
		if err != nil {
			return nil, err
		}
		m.strategy = strategy
	}

	return m, nil
}

// Append 追加消息到日志。
func (m *Manager) Append(msgs ...message.Message) {
	m.log.AppendAll(msgs...)
}

// Messages 返回当前日志内容的快照。
func (m *Manager) Messages() []message.Message {
	return m.log.Snapshot()
}

// MessageCount 返回当前消息数量。
func (m *Manager) MessageCount() int {
	return m.log.Len()
}

// TokenCount 返回当前日志的 Token 数。
// 每次调用实时测量，不做缓存。
func (m *Manager) TokenCount() int {
	return m.counter.CountMessages(m.log.Snapshot())
}

// Clear 清空日志。
func (m *Manager) Clear() {
	m.log.Clear()
}

// Config 返回当前压缩配置。
func (m *Manager) Config() config.CompactionConfig {
	return m.cfg
}

// ShouldCompact 判断当前是否应该压缩：
// 当前 Token 数超过触发阈值时返回 true。
func (m *Manager) ShouldCompact() bool {
	return m.TokenCount() > m.cfg.TriggerThresholdTokens
}

// Compact 执行一次压缩并原子地替换日志内容。
//
// ShouldCompact 为 false 时调用同样安全：策略契约保证此时是无操作，
// 手动与自动压缩的调用点因此完全一致、可重复调用。
// 模型后端失败时错误原样返回，日志保持不变。
func (m *Manager) Compact(ctx context.Context) (*Result, error) {
	start := time.Now()
	ctx, span := m.tracer.Start(ctx, "compaction.compact",
		trace.WithAttributes(attribute.String(otel.AttrStrategy, m.cfg.Strategy)))
	defer span.End()

	snapshot := m.log.Snapshot()

	var (
		res *Result
		err error
	)
	if m.cfg.PreserveSystemPrompt && len(snapshot) > 0 && snapshot[0].Role == message.RoleSystem {
		res, err = m.compactWithPinnedSystem(ctx, snapshot)
	} else {
		preserve := expandPreserveTurns(snapshot, m.cfg.PreserveRecentTurns)
		res, err = m.strategy.Compact(ctx, snapshot, m.cfg.TargetTokens, preserve)
	}

	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		m.metrics.RecordCompaction(ctx, m.cfg.Strategy, "error", 0, 0, elapsed)
		m.logger.WithContext(ctx).Error("compaction failed",
			"strategy", m.cfg.Strategy, "error", err)
		return nil, err
	}

	m.log.ReplaceAll(res.Messages)

	outcome := "compacted"
	if res.RemovedCount == 0 && res.TokensAfter == res.TokensBefore {
		outcome = "noop"
	}

	span.SetAttributes(
		attribute.Int("compaction.removed", res.RemovedCount),
		attribute.Int("compaction.tokens.before", res.TokensBefore),
		attribute.Int("compaction.tokens.after", res.TokensAfter),
	)
	m.metrics.RecordCompaction(ctx, res.Strategy, outcome,
		res.RemovedCount, res.TokensBefore-res.TokensAfter, elapsed)
	m.logger.WithContext(ctx).Info("context compacted",
		"strategy", res.Strategy,
		"removed", res.RemovedCount,
		"tokens_before", res.TokensBefore,
		"tokens_after", res.TokensAfter,
		"elapsed", elapsed)

	return res, nil
}

// CompactSync 是 Compact 的阻塞便捷入口。
// 它驱动同一条代码路径，不存在独立的同步实现。
func (m *Manager) CompactSync() (*Result, error) {
	return m.Compact(context.Background())
}

// compactWithPinnedSystem 在保留开头系统消息的前提下压缩其余部分。
//
// 系统消息先被摘下，其 Token 数从目标中扣除，策略只看到其余消息；
// 压缩完成后再接回开头。无论策略为何，该消息都不会被移除或替换。
func (m *Manager) compactWithPinnedSystem(ctx context.Context, snapshot []message.Message) (*Result, error) {
	head := snapshot[0]
	rest := snapshot[1:]

	headTokens := m.counter.CountMessages(snapshot[:1])
	target := m.cfg.TargetTokens - headTokens
	if target < 0 {
		target = 0
	}

	preserve := expandPreserveTurns(rest, m.cfg.PreserveRecentTurns)
	res, err := m.strategy.Compact(ctx, rest, target, preserve)
	if err != nil {
		return nil, err
	}

	out := make([]message.Message, 0, len(res.Messages)+1)
	out = append(out, head)
	out = append(out, res.Messages...)

	return &Result{
		Messages:     out,
		RemovedCount: res.RemovedCount,
		TokensBefore: m.counter.CountMessages(snapshot),
		TokensAfter:  m.counter.CountMessages(out),
		Strategy:     res.Strategy,
	}, nil
}
