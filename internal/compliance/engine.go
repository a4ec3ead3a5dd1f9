// Package compliance computes the hourly percentile SLA verdict of a profile.
package compliance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/internal/evaluate"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// Options controls the verdict computation.
type Options struct {
	// Percentile of the hour's measured rates that must reach the contracted rate (5 means p5).
	Percentile float64
	// HourFrom and HourTo bound the contractual window, both inclusive.
	HourFrom int
	HourTo   int
	// Location the wall-clock hour is read in. Nil keeps each timestamp's own location.
	Location *time.Location
	// Workers bounds EvaluateAll's concurrency.
	Workers int
}

// DefaultOptions is p5 over 06:00-20:59 with four workers.
func DefaultOptions() Options {
	return Options{Percentile: 5, HourFrom: 6, HourTo: 20, Workers: 4}
}

// Engine computes ProfileResults.
type Engine struct {
	opts Options
	log  *logger.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{opts: opts, log: logger.With("compliance")}
}

// Evaluate computes the hourly rows and summary of one profile.
// Only Succeeded tests count, and hours without any are omitted. An empty slice yields an empty result.
func (e *Engine) Evaluate(slice model.ProfileSlice) (model.ProfileResult, error) {
	prefix, ok := model.SheetPrefix(slice.Profile())
	if !ok {
		prefix = slice.Profile()
	}
	res := model.ProfileResult{
		Profile:     slice.Profile(),
		SheetPrefix: prefix,
		Rows:        []model.HourlyComplianceRow{},
		Summary:     model.ProfileSummary{Profile: slice.Profile()},
	}

	byHour := make(map[int][]model.TestRecord)
	for _, r := range slice.Records() {
		if r.Result != model.ResultSucceeded {
			continue
		}
		h := e.hourOf(r.Timestamp)
		if h < e.opts.HourFrom || h > e.opts.HourTo {
			continue
		}
		byHour[h] = append(byHour[h], r)
	}

	for h := e.opts.HourFrom; h <= e.opts.HourTo; h++ {
		records, ok := byHour[h]
		if !ok {
			continue
		}
		row, err := e.hourRow(h, records)
		if err != nil {
			return model.ProfileResult{}, fmt.Errorf("profile %q hour %d: %w", slice.Profile(), h, err)
		}
		res.Rows = append(res.Rows, row)
		if row.Pass {
			res.Summary.PassedHours++
		} else {
			res.Summary.FailedHours++
		}
	}
	if len(res.Rows) == 0 {
		e.log.Infof("profile %q has no succeeded tests between %02d:00 and %02d:59", slice.Profile(), e.opts.HourFrom, e.opts.HourTo)
	}
	return res, nil
}

func (e *Engine) hourOf(ts time.Time) int {
	if e.opts.Location != nil {
		ts = ts.In(e.opts.Location)
	}
	return ts.Hour()
}

func (e *Engine) hourRow(hour int, records []model.TestRecord) (model.HourlyComplianceRow, error) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })

	down := make(stats.Float64Data, 0, len(records))
	up := make(stats.Float64Data, 0, len(records))
	row := model.HourlyComplianceRow{
		Hour:             hour,
		SampleCount:      len(records),
		ExpectedDownRate: records[0].ExpectedDownRate,
		ExpectedUpRate:   records[0].ExpectedUpRate,
	}
	for _, r := range records {
		down = append(down, r.ActualDownRate)
		up = append(up, r.ActualUpRate)
		ev := evaluate.Evaluate(r)
		if ev.DnPass {
			row.DnPassCount++
		}
		if ev.UpPass {
			row.UpPassCount++
		}
	}

	var err error
	if row.P5DownRate, err = stats.PercentileNearestRank(down, e.opts.Percentile); err != nil {
		return row, err
	}
	if row.P5UpRate, err = stats.PercentileNearestRank(up, e.opts.Percentile); err != nil {
		return row, err
	}
	row.DnPass = row.P5DownRate >= row.ExpectedDownRate
	row.UpPass = row.P5UpRate >= row.ExpectedUpRate
	row.Pass = row.DnPass && row.UpPass
	row.DnPassPct = 100 * float64(row.DnPassCount) / float64(row.SampleCount)
	row.UpPassPct = 100 * float64(row.UpPassCount) / float64(row.SampleCount)
	return row, nil
}

// EvaluateAll evaluates independent profiles concurrently and returns the results ordered by profile.
func (e *Engine) EvaluateAll(ctx context.Context, slices []model.ProfileSlice) ([]model.ProfileResult, error) {
	results := make([]model.ProfileResult, len(slices))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, s := range slices {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.Evaluate(s)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Profile < results[j].Profile })
	return results, nil
}
