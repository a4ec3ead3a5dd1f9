package migration

import (
	"context"
	"io/fs"

	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// MigrationTasklet migrates a named connection and hands back a fresh connection to it.
type MigrationTasklet struct {
	dbResolver  database.DBConnectionResolver
	migrator    Migrator
	migrationFS fs.FS
}

// NewMigrationTasklet creates a tasklet applying the migrations of migrationFS.
// The directory used inside migrationFS is the database type ("sqlite", "postgres", "mysql").
func NewMigrationTasklet(dbResolver database.DBConnectionResolver, migrator Migrator, migrationFS fs.FS) *MigrationTasklet {
	return &MigrationTasklet{dbResolver: dbResolver, migrator: migrator, migrationFS: migrationFS}
}

// Execute applies pending migrations to the connection named dbRef and returns a connection that is
// usable afterwards.
func (t *MigrationTasklet) Execute(ctx context.Context, dbRef string) (database.DBConnection, error) {
	conn, err := t.dbResolver.ResolveDBConnection(ctx, dbRef)
	if err != nil {
		return nil, exception.NewEngineError("migration", exception.KindIO, "failed to resolve database connection", err)
	}
	if err := t.migrator.Up(ctx, conn, t.migrationFS, conn.Type(), MigrationsTable); err != nil {
		return nil, exception.NewEngineError("migration", exception.KindIO, "migration 'up' failed", err)
	}
	// The migrate instance closed the pool; the resolver notices and reconnects.
	fresh, err := t.dbResolver.ResolveDBConnection(ctx, dbRef)
	if err != nil {
		return nil, exception.NewEngineError("migration", exception.KindIO, "failed to reconnect after migration", err)
	}
	logger.Debugf("Database '%s' migrated and reconnected.", dbRef)
	return fresh, nil
}
