package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	metrics "github.com/tigerroll/vsatsla/pkg/batch/core/metrics"
)

const instrumentationName = "github.com/tigerroll/vsatsla"

// OpenTelemetryTracer is an implementation of metrics.Tracer using OpenTelemetry.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a tracer from the given provider.
func NewOpenTelemetryTracer(tp trace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{tracer: tp.Tracer(instrumentationName)}
}

// StartRunSpan starts the root span of a run.
func (t *OpenTelemetryTracer) StartRunSpan(ctx context.Context, runID string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "vsat.run", trace.WithAttributes(attribute.String("vsat.run_id", runID)))
	return ctx, func() { span.End() }
}

// StartStageSpan starts a span for a pipeline stage.
func (t *OpenTelemetryTracer) StartStageSpan(ctx context.Context, stage string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "vsat.stage."+stage, trace.WithAttributes(attribute.String("vsat.stage", stage)))
	return ctx, func() { span.End() }
}

// RecordError records err on the current span and marks it failed.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("vsat.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent adds an event to the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
}

func toAttributes(m map[string]interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return attrs
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
