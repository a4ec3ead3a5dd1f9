package metrics

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	metrics "github.com/tigerroll/vsatsla/pkg/batch/core/metrics"
)

// OTelMetricRecorder records pipeline metrics through OpenTelemetry instruments.
type OTelMetricRecorder struct {
	runs          metric.Int64Counter
	runDuration   metric.Float64Histogram
	stageDuration metric.Float64Histogram
	stageRows     metric.Int64Counter
	sites         metric.Int64Counter
	hourVerdicts  metric.Int64Counter
	sinkWrites    metric.Int64Counter
}

// NewOTelMetricRecorder creates the instruments on a meter of mp.
func NewOTelMetricRecorder(mp metric.MeterProvider) (*OTelMetricRecorder, error) {
	meter := mp.Meter(instrumentationName)
	r := &OTelMetricRecorder{}
	var errs *multierror.Error
	var err error

	r.runs, err = meter.Int64Counter("vsat.runs", metric.WithDescription("Compliance engine runs by status."))
	errs = multierror.Append(errs, err)
	r.runDuration, err = meter.Float64Histogram("vsat.run.duration", metric.WithUnit("s"),
		metric.WithDescription("Duration of compliance engine runs."))
	errs = multierror.Append(errs, err)
	r.stageDuration, err = meter.Float64Histogram("vsat.stage.duration", metric.WithUnit("s"),
		metric.WithDescription("Duration of pipeline stages."))
	errs = multierror.Append(errs, err)
	r.stageRows, err = meter.Int64Counter("vsat.stage.rows", metric.WithDescription("Rows produced by pipeline stages."))
	errs = multierror.Append(errs, err)
	r.sites, err = meter.Int64Counter("vsat.sites", metric.WithDescription("Classified sites by eligibility status."))
	errs = multierror.Append(errs, err)
	r.hourVerdicts, err = meter.Int64Counter("vsat.hour_verdicts", metric.WithDescription("Hourly compliance verdicts."))
	errs = multierror.Append(errs, err)
	r.sinkWrites, err = meter.Int64Counter("vsat.sink.writes", metric.WithDescription("Report sink writes by outcome."))
	errs = multierror.Append(errs, err)

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return r, nil
}

// RecordRunStart records the start of a run.
func (r *OTelMetricRecorder) RecordRunStart(ctx context.Context, runID string) {
	r.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "started")))
}

// RecordRunEnd records the end of a run.
func (r *OTelMetricRecorder) RecordRunEnd(ctx context.Context, runID string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("status", outcome(err)))
	r.runs.Add(ctx, 1, attrs)
	r.runDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStage records a stage duration and its output rows.
func (r *OTelMetricRecorder) RecordStage(ctx context.Context, stage string, duration time.Duration, rows int) {
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	r.stageDuration.Record(ctx, duration.Seconds(), attrs)
	r.stageRows.Add(ctx, int64(rows), attrs)
}

// RecordEligibility counts classified sites.
func (r *OTelMetricRecorder) RecordEligibility(ctx context.Context, status string, count int) {
	r.sites.Add(ctx, int64(count), metric.WithAttributes(attribute.String("status", status)))
}

// RecordHourVerdict counts one hourly verdict.
func (r *OTelMetricRecorder) RecordHourVerdict(ctx context.Context, profile string, pass bool) {
	r.hourVerdicts.Add(ctx, 1, metric.WithAttributes(attribute.String("profile", profile), attribute.Bool("pass", pass)))
}

// RecordSinkWrite counts one sink write.
func (r *OTelMetricRecorder) RecordSinkWrite(ctx context.Context, sink string, err error) {
	r.sinkWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink), attribute.String("outcome", outcome(err))))
}

var _ metrics.MetricRecorder = (*OTelMetricRecorder)(nil)
