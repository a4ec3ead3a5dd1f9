// Package database defines the relational database abstraction behind the report and ticket repositories.
package database

import (
	"context"
	"database/sql"

	dbconfig "github.com/tigerroll/vsatsla/pkg/batch/adapter/database/config"
	coreAdapter "github.com/tigerroll/vsatsla/pkg/batch/core/adapter"
)

// Operations accepted by DBExecutor.ExecuteUpdate.
const (
	OpCreate = "CREATE"
	OpDelete = "DELETE"
)

// DBExecutor defines the read and write operations shared by connections and transactions.
type DBExecutor interface {
	// ExecuteUpdate performs a CREATE (model is an entity pointer or a slice) or a DELETE restricted by query.
	ExecuteUpdate(ctx context.Context, model interface{}, operation string, tableName string, query map[string]interface{}) (rowsAffected int64, err error)

	// ExecuteUpsert inserts model, updating updateColumns on a conflict over conflictColumns.
	// With no updateColumns conflicting rows are left untouched.
	ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (rowsAffected int64, err error)

	// ExecuteQuery selects into target the rows matching query (AND of equalities).
	ExecuteQuery(ctx context.Context, target interface{}, query map[string]interface{}) error

	// ExecuteQueryAdvanced is ExecuteQuery with optional ordering and limit.
	ExecuteQueryAdvanced(ctx context.Context, target interface{}, query map[string]interface{}, orderBy string, limit int) error

	// Count counts the rows of model's table matching query.
	Count(ctx context.Context, model interface{}, query map[string]interface{}) (int64, error)
}

// DBConnection is a named, open database.
type DBConnection interface {
	coreAdapter.ResourceConnection
	DBExecutor

	// Transaction runs fn inside a transaction, committing when fn returns nil.
	Transaction(ctx context.Context, fn func(tx DBExecutor) error) error
	// RefreshConnection pings the connection pool.
	RefreshConnection(ctx context.Context) error
	// Config returns the configuration the connection was opened with.
	Config() dbconfig.DatabaseConfig
	// GetSQLDB returns the underlying *sql.DB, used by schema migrations.
	GetSQLDB() (*sql.DB, error)
}

// DBProvider opens and caches the connections of one database type.
type DBProvider interface {
	GetConnection(name string) (DBConnection, error)
	CloseAll() error
	Type() string
	// ForceReconnect closes the named connection, if open, and opens it again.
	ForceReconnect(name string) (DBConnection, error)
}

// DBConnectionResolver resolves a named connection, re-establishing it when it no longer answers.
type DBConnectionResolver interface {
	coreAdapter.ResourceConnectionResolver

	ResolveDBConnection(ctx context.Context, name string) (DBConnection, error)
}

// DBProviderGroup is the fx value group collecting every DBProvider.
const DBProviderGroup = `group:"db_providers"`
