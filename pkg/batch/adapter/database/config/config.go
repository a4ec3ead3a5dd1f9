package config

import (
	"fmt"

	"github.com/tigerroll/vsatsla/pkg/batch/support/util/configbinder"
)

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Type     string `yaml:"type"`     // "sqlite", "postgres" or "mysql".
	Host     string `yaml:"host"`     // Database host address.
	Port     int    `yaml:"port"`     // Database port number.
	Database string `yaml:"database"` // Database name, or the file path for sqlite.
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Sslmode  string `yaml:"sslmode"` // PostgreSQL only.
	// LogLevel of the gorm query logger: SILENT (default), ERROR, WARN or INFO.
	LogLevel string     `yaml:"log_level"`
	Pool     PoolConfig `yaml:"pool"`
}

// Lookup decodes the connection configured under name from the raw "database" configuration map.
func Lookup(all map[string]interface{}, name string) (DatabaseConfig, error) {
	var cfg DatabaseConfig
	raw, ok := all[name]
	if !ok {
		return cfg, fmt.Errorf("database configuration '%s' not found", name)
	}
	props, ok := raw.(map[string]interface{})
	if !ok {
		return cfg, fmt.Errorf("invalid database configuration format for '%s': expected a map but got %T", name, raw)
	}
	if err := configbinder.BindProperties(props, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}
	return cfg, nil
}
