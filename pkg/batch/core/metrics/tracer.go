package metrics

import "context"

// Tracer is an abstract interface for distributed tracing of engine runs.
type Tracer interface {
	// StartRunSpan starts the root span of a run.
	// The returned function ends the span and should be deferred.
	StartRunSpan(ctx context.Context, runID string) (context.Context, func())

	// StartStageSpan starts a child span for a pipeline stage.
	StartStageSpan(ctx context.Context, stage string) (context.Context, func())

	// RecordError records an error in the current span.
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current span.
	// Example attributes: map[string]interface{}{"profile": "Down:12 / Up:3", "rows": 15}
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
