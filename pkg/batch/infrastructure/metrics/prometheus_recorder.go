package metrics

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"

	metrics "github.com/tigerroll/vsatsla/pkg/batch/core/metrics"
	logger "github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runDurationSeconds   *prometheus.HistogramVec
	runStatusCounter     *prometheus.CounterVec
	stageDurationSeconds *prometheus.HistogramVec
	stageRowsCounter     *prometheus.CounterVec
	eligibilityGauge     *prometheus.GaugeVec
	hourVerdictCounter   *prometheus.CounterVec
	sinkWriteCounter     *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		runDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vsat_run_duration_seconds",
			Help:    "Duration of compliance engine runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		runStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vsat_run_status_total",
			Help: "Total number of compliance engine runs by status.",
		}, []string{"status"}),
		stageDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vsat_stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		stageRowsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vsat_stage_rows_total",
			Help: "Rows produced by pipeline stages.",
		}, []string{"stage"}),
		eligibilityGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vsat_sites",
			Help: "Sites per eligibility status in the last run.",
		}, []string{"status"}),
		hourVerdictCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vsat_hour_verdicts_total",
			Help: "Hourly compliance verdicts by profile.",
		}, []string{"profile", "verdict"}),
		sinkWriteCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vsat_sink_writes_total",
			Help: "Report sink writes by outcome.",
		}, []string{"sink", "outcome"}),
	}

	registry.MustRegister(
		r.runDurationSeconds,
		r.runStatusCounter,
		r.stageDurationSeconds,
		r.stageRowsCounter,
		r.eligibilityGauge,
		r.hourVerdictCounter,
		r.sinkWriteCounter,
	)
	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// WriteText writes every gathered metric family in the Prometheus text exposition format.
func (r *PrometheusRecorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "completed"
}

// RecordRunStart records the start of a run.
func (r *PrometheusRecorder) RecordRunStart(ctx context.Context, runID string) {
	r.runStatusCounter.WithLabelValues("started").Inc()
	logger.Debugf("Metrics: run '%s' started.", runID)
}

// RecordRunEnd records the end of a run.
func (r *PrometheusRecorder) RecordRunEnd(ctx context.Context, runID string, duration time.Duration, err error) {
	status := outcome(err)
	r.runStatusCounter.WithLabelValues(status).Inc()
	r.runDurationSeconds.WithLabelValues(status).Observe(duration.Seconds())
	logger.Debugf("Metrics: run '%s' %s. Duration: %.3fs", runID, status, duration.Seconds())
}

// RecordStage records a stage duration and its output rows.
func (r *PrometheusRecorder) RecordStage(ctx context.Context, stage string, duration time.Duration, rows int) {
	r.stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
	r.stageRowsCounter.WithLabelValues(stage).Add(float64(rows))
}

// RecordEligibility sets the number of sites in a status.
func (r *PrometheusRecorder) RecordEligibility(ctx context.Context, status string, count int) {
	r.eligibilityGauge.WithLabelValues(status).Set(float64(count))
}

// RecordHourVerdict counts one hourly verdict.
func (r *PrometheusRecorder) RecordHourVerdict(ctx context.Context, profile string, pass bool) {
	verdict := "fail"
	if pass {
		verdict = "pass"
	}
	r.hourVerdictCounter.WithLabelValues(profile, verdict).Inc()
}

// RecordSinkWrite counts one sink write.
func (r *PrometheusRecorder) RecordSinkWrite(ctx context.Context, sink string, err error) {
	r.sinkWriteCounter.WithLabelValues(sink, outcome(err)).Inc()
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
