// Package metrics defines the telemetry abstractions used by the compliance pipeline.
// Backends (Prometheus, OpenTelemetry) live in the infrastructure layer.
package metrics

import (
	"context"
	"time"
)

// MetricRecorder records pipeline metrics.
type MetricRecorder interface {
	// RecordRunStart records the start of one engine run.
	RecordRunStart(ctx context.Context, runID string)

	// RecordRunEnd records the end of a run. err is nil on success.
	RecordRunEnd(ctx context.Context, runID string, duration time.Duration, err error)

	// RecordStage records the duration of a pipeline stage (e.g., "normalize", "compliance")
	// and the number of rows it produced.
	RecordStage(ctx context.Context, stage string, duration time.Duration, rows int)

	// RecordEligibility records how many sites ended in an eligibility status.
	RecordEligibility(ctx context.Context, status string, count int)

	// RecordHourVerdict records one hourly compliance verdict of a profile.
	RecordHourVerdict(ctx context.Context, profile string, pass bool)

	// RecordSinkWrite records the outcome of publishing a report to a sink.
	RecordSinkWrite(ctx context.Context, sink string, err error)
}
