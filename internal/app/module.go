package app

import (
	"go.uber.org/fx"

	"github.com/tigerroll/vsatsla/internal/engine"
	"github.com/tigerroll/vsatsla/internal/report"
	"github.com/tigerroll/vsatsla/internal/repository"
	"github.com/tigerroll/vsatsla/internal/step/reader"
	"github.com/tigerroll/vsatsla/internal/step/writer"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage"
	"github.com/tigerroll/vsatsla/pkg/batch/component/tasklet/migration"
	config "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	"github.com/tigerroll/vsatsla/pkg/batch/core/metrics"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
)

// NewEngine builds the engine from the SLA configuration.
func NewEngine(cfg *config.Config, recorder metrics.MetricRecorder, tracer metrics.Tracer) (*engine.Engine, error) {
	opts, err := engine.NewOptions(cfg)
	if err != nil {
		return nil, err
	}
	return engine.New(opts, recorder, tracer), nil
}

// NewTicketFinder returns the ticket table reader, or nil when tickets only come from files.
func NewTicketFinder(cfg *config.Config, resolver database.DBConnectionResolver) reader.TicketFinder {
	ref := cfg.Vsat.Source.Tickets.DatabaseRef
	if ref == "" {
		return nil
	}
	return repository.NewTicketRepository(resolver, ref)
}

// NewLoader builds the source loader in the configured timezone.
func NewLoader(cfg *config.Config, resolver storage.StorageConnectionResolver, tickets reader.TicketFinder) (*reader.Loader, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, exception.NewEngineError("app", exception.KindConfig, "unknown timezone", err)
	}
	return reader.NewLoader(resolver, cfg.Vsat.Source, loc, tickets, reader.WithTimestampLayout(cfg.Vsat.SLA.TimestampLayout)), nil
}

// SinkParams collects the connections report sinks publish through.
type SinkParams struct {
	fx.In
	Cfg      *config.Config
	Storage  storage.StorageConnectionResolver
	Database database.DBConnectionResolver
	Migrator migration.Migrator
}

// NewSinks creates the configured report sinks.
func NewSinks(p SinkParams) ([]report.Sink, error) {
	return writer.NewSinks(p.Cfg.Vsat.Report, writer.Deps{
		Storage:  p.Storage,
		Database: p.Database,
		Migrator: p.Migrator,
	})
}

// Module provides the engine, its loader, the report sinks and the Runner.
var Module = fx.Options(
	fx.Provide(migration.NewMigrator),
	fx.Provide(NewEngine),
	fx.Provide(NewTicketFinder),
	fx.Provide(NewLoader),
	fx.Provide(NewSinks),
	fx.Provide(NewRunner),
)
