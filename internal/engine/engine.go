// Package engine runs the compliance pipeline over an already loaded record set.
// It performs no I/O; sources and sinks belong to the caller.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/vsatsla/internal/compliance"
	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/internal/eligibility"
	"github.com/tigerroll/vsatsla/internal/evaluate"
	"github.com/tigerroll/vsatsla/internal/normalize"
	"github.com/tigerroll/vsatsla/internal/report"
	"github.com/tigerroll/vsatsla/internal/views"
	config "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	"github.com/tigerroll/vsatsla/pkg/batch/core/metrics"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// Stage names used for metrics and spans.
const (
	StageNormalize   = "normalize"
	StageSelect      = "select"
	StageEligibility = "eligibility"
	StageEvaluate    = "evaluate"
	StageViews       = "views"
	StageCompliance  = "compliance"
	StageAssemble    = "assemble"
)

// Options configures every stage of the pipeline.
type Options struct {
	Normalize  normalize.Options
	Thresholds eligibility.Thresholds
	Views      views.Options
	Compliance compliance.Options
	// Now stamps the report and measures open tickets. Defaults to time.Now.
	Now func() time.Time
	// NewRunID names each run. Defaults to a random UUID.
	NewRunID func() string
}

// NewOptions derives pipeline options from the application configuration.
func NewOptions(cfg *config.Config) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, exception.NewEngineError("engine", exception.KindConfig,
			fmt.Sprintf("unknown timezone '%s'", cfg.Vsat.System.Timezone), err)
	}
	sla := cfg.Vsat.SLA
	return Options{
		Normalize: normalize.Options{TimestampLayout: sla.TimestampLayout, Location: loc, Dedupe: sla.Dedupe},
		Thresholds: eligibility.Thresholds{
			MinTests:       sla.MinTests,
			OutageMinTests: sla.OutageMinTests,
			OutageMinDays:  sla.OutageMinDays,
		},
		Views: views.Options{
			TruncateThreshold: sla.ErrorTruncateThreshold,
			TruncateLength:    sla.ErrorTruncateLength,
			TopN:              sla.FailureTopN,
		},
		Compliance: compliance.Options{
			Percentile: sla.Percentile,
			HourFrom:   sla.HourFrom,
			HourTo:     sla.HourTo,
			Location:   loc,
			Workers:    sla.Workers,
		},
	}, nil
}

// DefaultOptions returns the contractual defaults in UTC.
func DefaultOptions() Options {
	return Options{
		Normalize:  normalize.Options{Dedupe: true},
		Thresholds: eligibility.DefaultThresholds(),
		Views:      views.DefaultOptions(),
		Compliance: compliance.DefaultOptions(),
	}
}

// Input is one run's data and caller choices.
type Input struct {
	// Tables are the raw test exports, concatenated in order.
	Tables  []model.RawTable
	Tickets []model.OutageTicket
	// Selection scopes records before eligibility.
	Selection eligibility.Selection
	// Profiles restricts compliance to these profiles. Empty means every profile with eligible records.
	Profiles []string
	// Filters narrow the aggregation views only.
	Filters model.FilterSet
}

// ViewSet holds the aggregation views of a run.
type ViewSet struct {
	Summary           views.Summary        `yaml:"summary"`
	FailureBreakdown  []views.FailureCount `yaml:"failure_breakdown"`
	FailureTimeSeries views.FailureSeries  `yaml:"failure_time_series"`
	Progress          []views.DayProgress  `yaml:"progress"`
	Sites             []views.SiteProgress `yaml:"sites"`
}

// Result is everything a run produces.
type Result struct {
	Report *model.Report
	// Dataset is the eligible record set the views were computed over, before caller filters.
	Dataset views.Dataset
	Views   ViewSet
}

// Engine runs the pipeline.
type Engine struct {
	opts      Options
	recorder  metrics.MetricRecorder
	tracer    metrics.Tracer
	assembler *report.Assembler
	log       *logger.Logger
}

// New creates an Engine. Nil recorder and tracer fall back to no-ops.
func New(opts Options, recorder metrics.MetricRecorder, tracer metrics.Tracer) *Engine {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	return &Engine{
		opts:      opts,
		recorder:  recorder,
		tracer:    tracer,
		assembler: report.NewAssembler(recorder),
		log:       logger.With("engine"),
	}
}

// Assembler returns the assembler the engine builds reports with, for publishing them.
func (e *Engine) Assembler() *report.Assembler {
	return e.assembler
}

// stage times fn, records it and wraps it in a span. fn returns the number of rows it produced.
func (e *Engine) stage(ctx context.Context, name string, fn func(ctx context.Context) (int, error)) error {
	ctx, end := e.tracer.StartStageSpan(ctx, name)
	defer end()
	start := time.Now()
	rows, err := fn(ctx)
	if err != nil {
		e.tracer.RecordError(ctx, name, err)
		return err
	}
	e.recorder.RecordStage(ctx, name, time.Since(start), rows)
	e.log.Debugf("stage %s: %d rows in %s", name, rows, time.Since(start))
	return nil
}

// Run executes normalize, select, eligibility, evaluate, views, compliance and assemble in order.
func (e *Engine) Run(ctx context.Context, in Input) (res *Result, err error) {
	runID := e.opts.NewRunID()
	ctx, end := e.tracer.StartRunSpan(ctx, runID)
	defer end()
	e.recorder.RecordRunStart(ctx, runID)
	started := time.Now()
	defer func() {
		e.recorder.RecordRunEnd(ctx, runID, time.Since(started), err)
		if err != nil {
			e.tracer.RecordError(ctx, "engine", err)
		}
	}()

	now := e.opts.Now()
	var (
		records  []model.TestRecord
		selected []model.TestRecord
		elig     eligibility.Result
		dataset  views.Dataset
		viewSet  ViewSet
		results  []model.ProfileResult
	)

	if err = e.stage(ctx, StageNormalize, func(context.Context) (int, error) {
		records, err = normalize.New(e.opts.Normalize).NormalizeAll(in.Tables...)
		if err == nil && len(records) == 0 {
			e.log.Warnf("run %s: no test records in %d sources", runID, len(in.Tables))
		}
		return len(records), err
	}); err != nil {
		return nil, err
	}

	if err = e.stage(ctx, StageSelect, func(context.Context) (int, error) {
		selected = in.Selection.Apply(records)
		return len(selected), nil
	}); err != nil {
		return nil, err
	}

	if err = e.stage(ctx, StageEligibility, func(ctx context.Context) (int, error) {
		elig = eligibility.New(e.opts.Thresholds, eligibility.WithClock(func() time.Time { return now })).Apply(selected, in.Tickets)
		counts := make(map[model.EligibilityStatus]int)
		for _, s := range elig.Table {
			counts[s.Status]++
		}
		for _, st := range []model.EligibilityStatus{model.StatusValid, model.StatusInsufficientSample, model.StatusInsufficientSampleDespiteOutage} {
			e.recorder.RecordEligibility(ctx, string(st), counts[st])
		}
		return len(elig.Table), nil
	}); err != nil {
		return nil, err
	}

	if err = e.stage(ctx, StageEvaluate, func(context.Context) (int, error) {
		dataset = views.Dataset{Records: elig.Records, Evaluated: evaluate.EvaluateAll(elig.Records)}
		return len(dataset.Evaluated), nil
	}); err != nil {
		return nil, err
	}

	if err = e.stage(ctx, StageViews, func(context.Context) (int, error) {
		viewSet = e.computeViews(dataset, in.Filters)
		return len(viewSet.Sites), nil
	}); err != nil {
		return nil, err
	}

	if err = e.stage(ctx, StageCompliance, func(ctx context.Context) (int, error) {
		slices, serr := e.profileSlices(elig.Records, in.Profiles)
		if serr != nil {
			return 0, serr
		}
		results, err = compliance.New(e.opts.Compliance).EvaluateAll(ctx, slices)
		if err != nil {
			return 0, err
		}
		rows := 0
		for _, r := range results {
			for _, h := range r.Rows {
				e.recorder.RecordHourVerdict(ctx, r.Profile, h.Pass)
			}
			rows += len(r.Rows)
			e.tracer.RecordEvent(ctx, "profile.evaluated", map[string]interface{}{"profile": r.Profile, "rows": len(r.Rows)})
		}
		return rows, nil
	}); err != nil {
		return nil, err
	}

	res = &Result{Dataset: dataset, Views: viewSet}
	if err = e.stage(ctx, StageAssemble, func(context.Context) (int, error) {
		res.Report = e.assembler.Assemble(runID, now, elig.Table, results)
		return len(res.Report.Profiles), nil
	}); err != nil {
		return nil, err
	}
	e.log.Infof("run %s: %d records, %d sites, %d profiles", runID, len(records), len(elig.Table), len(results))
	return res, nil
}

// ComputeViews computes every aggregation view over d narrowed by fs.
func (e *Engine) ComputeViews(d views.Dataset, fs model.FilterSet) ViewSet {
	return e.computeViews(d, fs)
}

// Throughput returns the per-test rate points of one direction over d narrowed by fs, for the day and
// site drill-downs.
func (e *Engine) Throughput(d views.Dataset, fs model.FilterSet, dir views.Direction) []views.Point {
	return views.New(e.opts.Views).Throughput(d, fs, dir)
}

func (e *Engine) computeViews(d views.Dataset, fs model.FilterSet) ViewSet {
	v := views.New(e.opts.Views)
	return ViewSet{
		Summary:           v.Summary(d, fs),
		FailureBreakdown:  v.FailureBreakdown(d, fs),
		FailureTimeSeries: v.FailureTimeSeries(d, fs),
		Progress:          v.Progress(d, fs),
		Sites:             v.Sites(d, fs),
	}
}

// profileSlices splits records by profile. With requested profiles, only those are kept, in
// request order, and a profile without records gets an empty slice.
func (e *Engine) profileSlices(records []model.TestRecord, requested []string) ([]model.ProfileSlice, error) {
	all := model.SplitByProfile(records)
	if len(requested) == 0 {
		return all, nil
	}
	byProfile := make(map[string]model.ProfileSlice, len(all))
	for _, s := range all {
		byProfile[s.Profile()] = s
	}
	out := make([]model.ProfileSlice, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, p := range requested {
		if seen[p] {
			continue
		}
		seen[p] = true
		s, ok := byProfile[p]
		if !ok {
			var err error
			if s, err = model.NewProfileSlice(p, nil); err != nil {
				return nil, err
			}
			e.log.Warnf("profile %q has no eligible records", p)
		}
		out = append(out, s)
	}
	return out, nil
}
