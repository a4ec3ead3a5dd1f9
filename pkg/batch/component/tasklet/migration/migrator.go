package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

type migrator struct{}

// NewMigrator creates a golang-migrate backed Migrator.
func NewMigrator() Migrator {
	return &migrator{}
}

func databaseDriver(dbType string, sqlDB *sql.DB, tableName string) (migratedb.Driver, error) {
	switch dbType {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: tableName})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{MigrationsTable: tableName})
	case "sqlite":
		return sqlite.WithInstance(sqlDB, &sqlite.Config{MigrationsTable: tableName})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", dbType)
	}
}

// run executes command against conn. Closing the migrate instance also closes conn's pool,
// so callers resolve the connection again afterwards.
func (m *migrator) run(ctx context.Context, conn database.DBConnection, migrationFS fs.FS, path, tableName, command string) error {
	logger.Infof("Executing migration '%s' (DB: %s, Path: %s, Table: %s)", command, conn.Name(), path, tableName)

	sqlDB, err := conn.GetSQLDB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver for path %s: %w", path, err)
	}
	dbDriver, err := databaseDriver(conn.Type(), sqlDB, tableName)
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}
	instance, err := migrate.NewWithInstance("iofs", sourceDriver, conn.Type(), dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer instance.Close()

	if err := ctx.Err(); err != nil {
		return err
	}
	switch command {
	case "up":
		err = instance.Up()
	case "down":
		err = instance.Down()
	default:
		return fmt.Errorf("unsupported migration command: %s", command)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if version, dirty, verr := instance.Version(); verr == nil {
			logger.Errorf("Migration '%s' failed at version %d (dirty=%t).", command, version, dirty)
		}
		return fmt.Errorf("migration failed for command '%s' (DB: %s, Path: %s): %w", command, conn.Type(), path, err)
	}
	logger.Infof("Migration '%s' completed successfully.", command)
	return nil
}

func (m *migrator) Up(ctx context.Context, conn database.DBConnection, migrationFS fs.FS, path string, tableName string) error {
	return m.run(ctx, conn, migrationFS, path, tableName, "up")
}

func (m *migrator) Down(ctx context.Context, conn database.DBConnection, migrationFS fs.FS, path string, tableName string) error {
	return m.run(ctx, conn, migrationFS, path, tableName, "down")
}
