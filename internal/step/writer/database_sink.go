package writer

import (
	"context"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/internal/repository"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
	"github.com/tigerroll/vsatsla/pkg/batch/component/tasklet/migration"
)

// DatabaseSink stores reports in the report tables, migrating the schema first.
type DatabaseSink struct {
	migrations *migration.MigrationTasklet
	reports    *repository.ReportRepository
	dbRef      string
}

// NewDatabaseSink creates a sink for the connection named dbRef.
func NewDatabaseSink(resolver database.DBConnectionResolver, migrator migration.Migrator, dbRef string) *DatabaseSink {
	return &DatabaseSink{
		migrations: migration.NewMigrationTasklet(resolver, migrator, repository.MigrationsFS),
		reports:    repository.NewReportRepository(resolver, dbRef),
		dbRef:      dbRef,
	}
}

func (s *DatabaseSink) Name() string { return SinkDatabase }

// Write implements report.Sink.
func (s *DatabaseSink) Write(ctx context.Context, r *model.Report) error {
	if _, err := s.migrations.Execute(ctx, s.dbRef); err != nil {
		return err
	}
	return s.reports.SaveReport(ctx, r)
}
