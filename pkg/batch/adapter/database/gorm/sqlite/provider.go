// Package sqlite provides a GORM DBProvider implementation for SQLite databases.
package sqlite

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/vsatsla/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/vsatsla/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/vsatsla/pkg/batch/core/config"
)

// DBType is the "type" value selecting this dialect.
const DBType = "sqlite"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		return sqlite.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString returns the database file path. Foreign keys are enabled on every connection.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	return c.Database + "?_foreign_keys=on"
}

// NewProvider creates a DBProvider for SQLite.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewBaseProvider(cfg, DBType)
}
