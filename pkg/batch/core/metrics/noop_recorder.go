package metrics

import (
	"context"
	"time"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

func (r *NoOpMetricRecorder) RecordRunStart(ctx context.Context, runID string) {}
func (r *NoOpMetricRecorder) RecordRunEnd(ctx context.Context, runID string, duration time.Duration, err error) {
}
func (r *NoOpMetricRecorder) RecordStage(ctx context.Context, stage string, duration time.Duration, rows int) {
}
func (r *NoOpMetricRecorder) RecordEligibility(ctx context.Context, status string, count int)  {}
func (r *NoOpMetricRecorder) RecordHourVerdict(ctx context.Context, profile string, pass bool) {}
func (r *NoOpMetricRecorder) RecordSinkWrite(ctx context.Context, sink string, err error)      {}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// --- NoOpTracer ---

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

// StartRunSpan returns ctx unchanged.
func (t *NoOpTracer) StartRunSpan(ctx context.Context, runID string) (context.Context, func()) {
	return ctx, func() {}
}

// StartStageSpan returns ctx unchanged.
func (t *NoOpTracer) StartStageSpan(ctx context.Context, stage string) (context.Context, func()) {
	return ctx, func() {}
}

// RecordError does nothing.
func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

// RecordEvent does nothing.
func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
}

var _ Tracer = (*NoOpTracer)(nil)
