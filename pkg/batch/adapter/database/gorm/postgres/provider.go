// Package postgres provides a GORM DBProvider implementation for PostgreSQL databases.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/vsatsla/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/vsatsla/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/vsatsla/pkg/batch/core/config"
)

// DBType is the "type" value selecting this dialect.
const DBType = "postgres"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return postgres.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString generates the keyword/value DSN expected by gorm.io/driver/postgres.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	sslmode := c.Sslmode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslmode)
}

// NewProvider creates a DBProvider for PostgreSQL.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewBaseProvider(cfg, DBType)
}
