package metrics

import (
	"context"
	"strings"

	"go.uber.org/fx"

	config "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	metrics "github.com/tigerroll/vsatsla/pkg/batch/core/metrics"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
)

// NewTelemetryProvider builds Telemetry and shuts it down with the application.
func NewTelemetryProvider(lc fx.Lifecycle, cfg *config.Config) (*Telemetry, error) {
	t, err := NewTelemetry(context.Background(), cfg.Vsat.Metrics)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: t.Shutdown})
	return t, nil
}

// NewMetricRecorderProvider selects the recorder backend from configuration.
// Disabled metrics yield the no-op recorder.
func NewMetricRecorderProvider(cfg *config.Config, t *Telemetry) (metrics.MetricRecorder, error) {
	if !cfg.Vsat.Metrics.Enabled {
		return metrics.NewNoOpMetricRecorder(), nil
	}
	switch strings.ToLower(cfg.Vsat.Metrics.Backend) {
	case "", "prometheus":
		return NewPrometheusRecorder(), nil
	case "otel", "opentelemetry":
		return NewOTelMetricRecorder(t.MeterProvider)
	}
	return nil, exception.NewEngineErrorf("metrics", exception.KindConfig, "unknown metrics backend %q", cfg.Vsat.Metrics.Backend)
}

// NewTracerProvider exposes the OpenTelemetry tracer as a metrics.Tracer.
func NewTracerProvider(cfg *config.Config, t *Telemetry) metrics.Tracer {
	if !cfg.Vsat.Metrics.Enabled {
		return metrics.NewNoOpTracer()
	}
	return NewOpenTelemetryTracer(t.TracerProvider)
}

// Module provides Telemetry, the configured MetricRecorder and an OpenTelemetry Tracer.
var Module = fx.Options(
	fx.Provide(NewTelemetryProvider),
	fx.Provide(NewMetricRecorderProvider),
	fx.Provide(NewTracerProvider),
)
