package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Provider 持有已初始化的追踪与指标提供器。
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// Init 按配置初始化可观测性提供器并注册为全局默认。
//
// 返回的 Provider 在进程退出前应调用 Shutdown 刷出缓冲数据。
// cfg.Enabled 为 false 时返回 nil Provider，调用方无需初始化。
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil {
		return nil, err
	}

	p := &Provider{}

	if cfg.Tracing.Enabled {
		exporter, err := CreateTraceExporter(ctx, ExporterConfig{
			Type:     ExporterOTLPHTTP,
			Endpoint: cfg.Tracing.Endpoint,
			Insecure: cfg.Tracing.Insecure,
			Timeout:  cfg.Tracing.Timeout,
		})
		if err != nil {
			return nil, err
		}

		p.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRate)),
		)
		otel.SetTracerProvider(p.tracerProvider)
	}

	if cfg.Metrics.Enabled {
		exporter, err := CreateMetricExporter(ctx, ExporterConfig{
			Type:     ExporterOTLPHTTP,
			Endpoint: cfg.Metrics.Endpoint,
			Insecure: cfg.Metrics.Insecure,
		})
		if err != nil {
			return nil, err
		}

		p.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(cfg.Metrics.Interval))),
		)
		otel.SetMeterProvider(p.meterProvider)
	}

	return p, nil
}

// Shutdown 刷出并关闭所有提供器。
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}

	var firstErr error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
