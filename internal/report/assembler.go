// Package report assembles the multi-table compliance report and publishes it to sinks.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/pkg/batch/core/metrics"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// Sink receives an assembled report.
type Sink interface {
	// Name identifies the sink in logs and metrics (e.g., "xlsx").
	Name() string
	Write(ctx context.Context, report *model.Report) error
}

// Assembler builds reports and publishes them.
type Assembler struct {
	recorder metrics.MetricRecorder
	log      *logger.Logger
}

// NewAssembler creates an Assembler.
func NewAssembler(recorder metrics.MetricRecorder) *Assembler {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &Assembler{recorder: recorder, log: logger.With("report")}
}

// Assemble gathers the eligibility table and per-profile results into one report.
// Profiles and summaries are ordered by profile; the inputs are not modified.
func (a *Assembler) Assemble(runID string, generatedAt time.Time, eligibility []model.SiteEligibility, results []model.ProfileResult) *model.Report {
	profiles := append([]model.ProfileResult(nil), results...)
	sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].Profile < profiles[j].Profile })

	summaries := make([]model.ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		summaries = append(summaries, p.Summary)
	}
	if eligibility == nil {
		eligibility = []model.SiteEligibility{}
	}
	return &model.Report{
		RunID:       runID,
		GeneratedAt: generatedAt,
		Eligibility: append([]model.SiteEligibility(nil), eligibility...),
		Profiles:    profiles,
		Summaries:   summaries,
	}
}

// Publish writes report to every sink in order. A failing sink does not stop the others;
// all failures are returned together.
func (a *Assembler) Publish(ctx context.Context, report *model.Report, sinks ...Sink) error {
	var result *multierror.Error
	for _, s := range sinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.Write(ctx, report)
		a.recorder.RecordSinkWrite(ctx, s.Name(), err)
		if err != nil {
			a.log.Errorf("Sink '%s' failed for report '%s': %v", s.Name(), report.RunID, err)
			result = multierror.Append(result, fmt.Errorf("sink %s: %w", s.Name(), err))
			continue
		}
		a.log.Infof("Report '%s' written to sink '%s'.", report.RunID, s.Name())
	}
	return result.ErrorOrNil()
}
