package app

import (
	"context"
	"strings"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/internal/eligibility"
	"github.com/tigerroll/vsatsla/internal/engine"
	"github.com/tigerroll/vsatsla/internal/normalize"
	"github.com/tigerroll/vsatsla/internal/report"
	"github.com/tigerroll/vsatsla/internal/step/reader"
	"github.com/tigerroll/vsatsla/internal/views"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// Request names the inputs and choices of one run.
type Request struct {
	// Tests are the test export files, read in order.
	Tests []string
	// Tickets is the outage ticket file. Empty reads the ticket table when one is configured.
	Tickets string
	// Locations is the contracted location list. Empty uses vsat.source.locations.
	Locations     string
	Profiles      []string
	TestTypes     []string
	ExcludedSites []string
	// Filters are column=value predicates for the aggregation views.
	Filters map[string]string
}

// Runner loads a Request's sources, runs the engine and publishes the report.
type Runner struct {
	loader *reader.Loader
	engine *engine.Engine
	sinks  []report.Sink
	log    *logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(loader *reader.Loader, e *engine.Engine, sinks []report.Sink) *Runner {
	return &Runner{loader: loader, engine: e, sinks: sinks, log: logger.With("runner")}
}

// Input loads every source a Request names.
func (r *Runner) Input(ctx context.Context, req Request) (engine.Input, error) {
	filters, err := model.NewFilterSet(req.Filters)
	if err != nil {
		return engine.Input{}, exception.NewEngineError("app", exception.KindConfig, "invalid view filter", err)
	}
	types := make([]model.TestType, 0, len(req.TestTypes))
	for _, s := range req.TestTypes {
		tt, err := normalize.ParseTestType(s)
		if err != nil {
			return engine.Input{}, exception.NewEngineError("app", exception.KindConfig, "invalid test type", err)
		}
		types = append(types, tt)
	}

	tables, err := r.loader.LoadTests(ctx, req.Tests)
	if err != nil {
		return engine.Input{}, err
	}
	locations, err := r.loader.LoadLocations(ctx, req.Locations)
	if err != nil {
		return engine.Input{}, err
	}
	tickets, err := r.loader.LoadTickets(ctx, req.Tickets)
	if err != nil {
		return engine.Input{}, err
	}
	r.log.Infof("Loaded %d export(s), %d contracted location(s) and %d ticket(s).", len(tables), len(locations), len(tickets))

	return engine.Input{
		Tables:  tables,
		Tickets: tickets,
		Selection: eligibility.Selection{
			Locations:     locations,
			TestTypes:     types,
			ExcludedSites: req.ExcludedSites,
		},
		Profiles: req.Profiles,
		Filters:  filters,
	}, nil
}

// Run loads the sources and runs the engine without publishing.
func (r *Runner) Run(ctx context.Context, req Request) (*engine.Result, error) {
	in, err := r.Input(ctx, req)
	if err != nil {
		return nil, err
	}
	return r.engine.Run(ctx, in)
}

// Publish writes the report of res to every configured sink.
func (r *Runner) Publish(ctx context.Context, res *engine.Result) error {
	if len(r.sinks) == 0 {
		r.log.Warnf("No report sinks configured; report %s is not published.", res.Report.RunID)
		return nil
	}
	return r.engine.Assembler().Publish(ctx, res.Report, r.sinks...)
}

// Throughput returns the rate points of direction dir ("down" or "up") in res, narrowed by filters.
func (r *Runner) Throughput(res *engine.Result, filters map[string]string, dir string) ([]views.Point, error) {
	fs, err := model.NewFilterSet(filters)
	if err != nil {
		return nil, exception.NewEngineError("app", exception.KindConfig, "invalid view filter", err)
	}
	d := views.Direction(strings.ToLower(strings.TrimSpace(dir)))
	if d != views.Down && d != views.Up {
		return nil, exception.NewEngineErrorf("app", exception.KindConfig, "unknown direction '%s' (expected down or up)", dir)
	}
	return r.engine.Throughput(res.Dataset, fs, d), nil
}

// Sinks returns the names of the configured sinks.
func (r *Runner) Sinks() []string {
	names := make([]string, 0, len(r.sinks))
	for _, s := range r.sinks {
		names = append(names, s.Name())
	}
	return names
}
