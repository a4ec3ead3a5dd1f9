package metrics

import (
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	config "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// Telemetry owns the OpenTelemetry tracer and meter providers of the process.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// TelemetryOption adds readers or span processors, mainly for tests.
type TelemetryOption func(*telemetryOptions)

type telemetryOptions struct {
	traceOpts  []sdktrace.TracerProviderOption
	metricOpts []sdkmetric.Option
}

// WithSpanSyncer exports spans synchronously to exp.
func WithSpanSyncer(exp sdktrace.SpanExporter) TelemetryOption {
	return func(o *telemetryOptions) { o.traceOpts = append(o.traceOpts, sdktrace.WithSyncer(exp)) }
}

// WithMetricReader attaches an additional metric reader.
func WithMetricReader(r sdkmetric.Reader) TelemetryOption {
	return func(o *telemetryOptions) { o.metricOpts = append(o.metricOpts, sdkmetric.WithReader(r)) }
}

// NewTelemetry builds tracer and meter providers exporting over OTLP.
// Protocol "http" or "grpc" selects the exporter; "none" builds providers without exporters.
func NewTelemetry(ctx context.Context, cfg config.MetricsConfig, opts ...TelemetryOption) (*Telemetry, error) {
	o := &telemetryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))
	o.traceOpts = append(o.traceOpts, sdktrace.WithResource(res))
	o.metricOpts = append(o.metricOpts, sdkmetric.WithResource(res))

	switch strings.ToLower(cfg.OTLPProtocol) {
	case "http":
		traceOpts := []otlptracehttp.Option{}
		metricOpts := []otlpmetrichttp.Option{}
		if cfg.OTLPEndpoint != "" {
			traceOpts = append(traceOpts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
			metricOpts = append(metricOpts, otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.Insecure {
			traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
			metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
		}
		spanExp, err := otlptracehttp.New(ctx, traceOpts...)
		if err != nil {
			return nil, exception.NewEngineError("metrics", exception.KindConfig, "failed to create OTLP/HTTP trace exporter", err)
		}
		metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
		if err != nil {
			return nil, exception.NewEngineError("metrics", exception.KindConfig, "failed to create OTLP/HTTP metric exporter", err)
		}
		o.traceOpts = append(o.traceOpts, sdktrace.WithBatcher(spanExp))
		o.metricOpts = append(o.metricOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)))
	case "grpc":
		traceOpts := []otlptracegrpc.Option{}
		metricOpts := []otlpmetricgrpc.Option{}
		if cfg.OTLPEndpoint != "" {
			traceOpts = append(traceOpts, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint))
			metricOpts = append(metricOpts, otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.Insecure {
			traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
			metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		}
		spanExp, err := otlptracegrpc.New(ctx, traceOpts...)
		if err != nil {
			return nil, exception.NewEngineError("metrics", exception.KindConfig, "failed to create OTLP/gRPC trace exporter", err)
		}
		metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
		if err != nil {
			return nil, exception.NewEngineError("metrics", exception.KindConfig, "failed to create OTLP/gRPC metric exporter", err)
		}
		o.traceOpts = append(o.traceOpts, sdktrace.WithBatcher(spanExp))
		o.metricOpts = append(o.metricOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)))
	case "", "none":
	default:
		return nil, exception.NewEngineErrorf("metrics", exception.KindConfig, "unknown OTLP protocol %q", cfg.OTLPProtocol)
	}

	logger.Debugf("Telemetry initialized (service=%s, otlp=%s)", cfg.ServiceName, cfg.OTLPProtocol)
	return &Telemetry{
		TracerProvider: sdktrace.NewTracerProvider(o.traceOpts...),
		MeterProvider:  sdkmetric.NewMeterProvider(o.metricOpts...),
	}, nil
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs *multierror.Error
	errs = multierror.Append(errs, t.TracerProvider.Shutdown(ctx))
	errs = multierror.Append(errs, t.MeterProvider.Shutdown(ctx))
	return errs.ErrorOrNil()
}
