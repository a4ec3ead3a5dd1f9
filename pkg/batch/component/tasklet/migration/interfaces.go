// Package migration applies embedded golang-migrate schema migrations to a named database connection.
package migration

import (
	"context"
	"io/fs"

	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
)

// MigrationsTable is the table tracking applied schema versions.
const MigrationsTable = "vsat_schema_migrations"

// Migrator applies migrations found in a directory of an fs.FS.
type Migrator interface {
	// Up applies every pending migration.
	Up(ctx context.Context, conn database.DBConnection, migrationFS fs.FS, path string, tableName string) error
	// Down rolls back every applied migration.
	Down(ctx context.Context, conn database.DBConnection, migrationFS fs.FS, path string, tableName string) error
}
