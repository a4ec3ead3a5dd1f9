// Package config provides the configuration model of the VSAT compliance engine and its loader.
package config

import "time"

// EmbeddedConfig holds the content of the configuration file, typically embedded by main.go.
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"

	// LogLevelSilent is only meaningful for the gorm query logger.
	LogLevelSilent LogLevel = "SILENT"
)

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone used to interpret test timestamps and derive wall-clock hours (e.g., "UTC", "America/Bogota").
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

// SLAConfig holds the contractual thresholds applied by the engine.
type SLAConfig struct {
	MinTests       int `yaml:"min_tests"`        // sample floor for a valid site
	OutageMinTests int `yaml:"outage_min_tests"` // relaxed floor once a site had an outage
	OutageMinDays  int `yaml:"outage_min_days"`  // downtime needed for the relaxed floor
	// Percentile is the rank used for the hourly verdict (5 means p5).
	Percentile float64 `yaml:"percentile"`
	HourFrom   int     `yaml:"hour_from"`
	HourTo     int     `yaml:"hour_to"`
	// TimestampLayout is a Go time layout; fractional seconds in the data are accepted.
	TimestampLayout        string `yaml:"timestamp_layout"`
	Dedupe                 bool   `yaml:"dedupe"`
	ErrorTruncateThreshold int    `yaml:"error_truncate_threshold"`
	ErrorTruncateLength    int    `yaml:"error_truncate_length"`
	FailureTopN            int    `yaml:"failure_top_n"`
	// Workers bounds the per-profile compliance fan-out.
	Workers int `yaml:"workers"`
}

// TicketSourceConfig names the columns of an outage ticket export.
type TicketSourceConfig struct {
	SiteColumn      string `yaml:"site_column"`
	OpenedColumn    string `yaml:"opened_column"`
	ResolvedColumn  string `yaml:"resolved_column"`
	TimestampLayout string `yaml:"timestamp_layout"`
	// DatabaseRef selects a named database connection; tickets are then read from the outage_tickets table.
	DatabaseRef string `yaml:"database_ref"`
}

// SourceConfig holds settings for the record, ticket and location sources.
type SourceConfig struct {
	// StorageRef names the storage connection input files are read from.
	StorageRef string `yaml:"storage_ref"`
	// Bucket is the bucket (or base directory selector) for input files.
	Bucket string `yaml:"bucket"`
	// Sheet is the worksheet holding the test export.
	Sheet string `yaml:"sheet"`
	// HeaderRow is the 1-based row carrying the column headers.
	HeaderRow      int                `yaml:"header_row"`
	LocationColumn string             `yaml:"location_column"`
	Locations      []int              `yaml:"locations"`
	Tickets        TicketSourceConfig `yaml:"tickets"`
}

// ReportConfig selects the sinks the assembled report is published to.
type ReportConfig struct {
	// Sinks is any of "xlsx", "parquet", "database".
	Sinks         []string `yaml:"sinks"`
	StorageRef    string   `yaml:"storage_ref"`
	Bucket        string   `yaml:"bucket"`
	OutputBaseDir string   `yaml:"output_base_dir"`
	// Compression for the parquet sink: SNAPPY, GZIP or NONE.
	Compression string `yaml:"compression"`
	DatabaseRef string `yaml:"database_ref"`
}

// MetricsConfig holds telemetry settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	// Backend is "prometheus" or "otel".
	Backend      string `yaml:"backend"`
	ServiceName  string `yaml:"service_name"`
	OTLPProtocol string `yaml:"otlp_protocol"` // http, grpc or none
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

// VsatConfig holds everything under the "vsat" top-level key.
type VsatConfig struct {
	System  SystemConfig  `yaml:"system"`
	SLA     SLAConfig     `yaml:"sla"`
	Source  SourceConfig  `yaml:"source"`
	Report  ReportConfig  `yaml:"report"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Vsat VsatConfig `yaml:"vsat"`
	// Storage holds named storage connections, decoded by the storage adapters.
	Storage map[string]interface{} `yaml:"storage"`
	// Database holds named database connections, decoded by the database adapters.
	Database map[string]interface{} `yaml:"database"`
	// EmbeddedConfig holds the raw configuration the values were loaded from.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// GlobalConfig is the configuration instance shared across the application.
// It is set by NewConfigProvider.
var GlobalConfig *Config

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		Vsat: VsatConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: string(LogLevelInfo)},
			},
			SLA: SLAConfig{
				MinTests:               30,
				OutageMinTests:         15,
				OutageMinDays:          1,
				Percentile:             5,
				HourFrom:               6,
				HourTo:                 20,
				TimestampLayout:        "2006-01-02 15:04:05",
				Dedupe:                 true,
				ErrorTruncateThreshold: 75,
				ErrorTruncateLength:    40,
				FailureTopN:            5,
				Workers:                4,
			},
			Source: SourceConfig{
				StorageRef:     "local",
				Sheet:          "ReportSheet",
				HeaderRow:      2,
				LocationColumn: "location",
				Tickets: TicketSourceConfig{
					SiteColumn:      "site",
					OpenedColumn:    "opened_at",
					ResolvedColumn:  "resolved_at",
					TimestampLayout: "2006-01-02 15:04:05",
				},
			},
			Report: ReportConfig{
				Sinks:         []string{"xlsx"},
				StorageRef:    "local",
				OutputBaseDir: "reports",
				Compression:   "SNAPPY",
			},
			Metrics: MetricsConfig{
				Backend:      "prometheus",
				ServiceName:  "vsatsla",
				OTLPProtocol: "none",
			},
		},
		Storage:  map[string]interface{}{},
		Database: map[string]interface{}{},
	}
}

// Location resolves the configured timezone. An invalid name is reported as an error.
func (c *Config) Location() (*time.Location, error) {
	if c.Vsat.System.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Vsat.System.Timezone)
}
