package otel_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/easyops/compaction-go/pkg/otel"
)

func TestDefaultConfig(t *testing.T) {
	cfg := otel.DefaultConfig()

	if cfg.Enabled {
		t.Error("observability should be disabled by default")
	}
	if cfg.ServiceName != "compaction-engine" {
		t.Errorf("ServiceName = %q, want compaction-engine", cfg.ServiceName)
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("SampleRate = %f, want 1.0", cfg.Tracing.SampleRate)
	}
	if cfg.Tracing.Endpoint != "localhost:4318" || cfg.Metrics.Endpoint != "localhost:4318" {
		t.Errorf("default endpoints = (%q, %q), want localhost:4318",
			cfg.Tracing.Endpoint, cfg.Metrics.Endpoint)
	}
	if cfg.Metrics.Interval != 60*time.Second {
		t.Errorf("Metrics.Interval = %v, want 60s", cfg.Metrics.Interval)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := otel.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}

	cfg.Tracing.SampleRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("sample rate above 1 should be rejected")
	}

	cfg.Tracing.SampleRate = -0.1
	if err := cfg.Validate(); err == nil {
		t.Error("negative sample rate should be rejected")
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := otel.Config{ServiceName: "my-service"}.WithDefaults()

	if cfg.ServiceName != "my-service" {
		t.Errorf("explicit ServiceName overwritten: %q", cfg.ServiceName)
	}
	if cfg.Tracing.Endpoint == "" || cfg.Metrics.Endpoint == "" {
		t.Error("endpoints should be filled with defaults")
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("SampleRate = %f, want default 1.0", cfg.Tracing.SampleRate)
	}
}

func TestSlogLogger_Output(t *testing.T) {
	var buf bytes.Buffer
	logger := otel.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	logger.Info("compaction finished", "strategy", "hybrid", "removed", 3)

	out := buf.String()
	if !strings.Contains(out, "compaction finished") {
		t.Errorf("log output missing message: %q", out)
	}
	if !strings.Contains(out, "strategy=hybrid") || !strings.Contains(out, "removed=3") {
		t.Errorf("log output missing attributes: %q", out)
	}
}

func TestSlogLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := otel.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	scoped := logger.WithFields(map[string]any{"session": "abc123"})
	scoped.Info("hello")

	if !strings.Contains(buf.String(), "session=abc123") {
		t.Errorf("field missing from output: %q", buf.String())
	}

	// 原 Logger 不携带新增字段
	buf.Reset()
	logger.Info("plain")
	if strings.Contains(buf.String(), "session") {
		t.Errorf("parent logger polluted by WithFields: %q", buf.String())
	}
}

func TestSlogLogger_WithContextNoSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := otel.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	// 无活动 span 时不输出 trace_id
	logger.WithContext(context.Background()).Info("no trace")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("trace_id should be absent without an active span: %q", buf.String())
	}
}

func TestNoopLogger(t *testing.T) {
	logger := otel.NewNoopLogger()

	// 所有调用都应安全返回
	logger.Debug("a")
	logger.Info("b", "k", "v")
	logger.Warn("c")
	logger.Error("d")
	if logger.WithContext(context.Background()) == nil {
		t.Error("WithContext should return a usable logger")
	}
	if logger.WithFields(map[string]any{"k": "v"}) == nil {
		t.Error("WithFields should return a usable logger")
	}
}

func TestCompactionMetrics_NilSafe(t *testing.T) {
	var m *otel.CompactionMetrics

	// nil 指标集合上的记录是无操作，不 panic
	m.RecordCompaction(context.Background(), "hybrid", "compacted", 3, 450, 12*time.Millisecond)
}

func TestNewCompactionMetrics(t *testing.T) {
	m, err := otel.NewCompactionMetrics()
	if err != nil {
		t.Fatalf("NewCompactionMetrics() error = %v", err)
	}

	// 未配置 MeterProvider 时走全局 noop 实现，记录不报错
	m.RecordCompaction(context.Background(), "sliding_window", "noop", 0, 0, time.Millisecond)
}
