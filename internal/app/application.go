// Package app wires configuration, sources, the engine and the report sinks into an fx application.
package app

import (
	"strings"

	"go.uber.org/fx"

	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database/gorm/mysql"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database/gorm/postgres"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage/gcs"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage/local"
	config "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	inframetrics "github.com/tigerroll/vsatsla/pkg/batch/infrastructure/metrics"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/configbinder"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// DBProviderMap maps adaptor names to the fx module registering their DBProvider.
var DBProviderMap = map[string]fx.Option{
	"sqlite":   sqlite.Module,
	"postgres": postgres.Module,
	"mysql":    mysql.Module,
}

// DBProviderOptions returns the modules for a comma-separated adaptor list.
// An empty list selects every dialect.
func DBProviderOptions(adaptors string) []fx.Option {
	if strings.TrimSpace(adaptors) == "" {
		adaptors = "postgres,mysql,sqlite"
	}
	options := make([]fx.Option, 0, len(DBProviderMap))
	for _, name := range strings.Split(adaptors, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if m, ok := DBProviderMap[name]; ok {
			options = append(options, m)
			logger.Debugf("DB Provider '%s' selected and registered.", name)
		} else {
			logger.Warnf("DB Provider '%s' is configured but not recognized/supported. Skipping.", name)
		}
	}
	return options
}

// Overrides are command-line settings applied on top of the loaded configuration.
type Overrides struct {
	LogLevel string
	// Sinks replaces vsat.report.sinks when non-empty.
	Sinks []string
	// ReportProperties are bound onto vsat.report by yaml key, e.g. "compression" or "output_base_dir".
	ReportProperties map[string]string
	// EnableMetrics turns metrics on with the Prometheus backend.
	EnableMetrics bool
}

// Apply returns cfg with the overrides applied.
func (o Overrides) Apply(cfg *config.Config) (*config.Config, error) {
	if err := configbinder.BindStringProperties(o.ReportProperties, &cfg.Vsat.Report); err != nil {
		return nil, exception.NewEngineError("app", exception.KindConfig, "invalid report property", err)
	}
	if len(o.Sinks) > 0 {
		cfg.Vsat.Report.Sinks = append([]string(nil), o.Sinks...)
	}
	if o.EnableMetrics {
		cfg.Vsat.Metrics.Enabled = true
		cfg.Vsat.Metrics.Backend = "prometheus"
	}
	if o.LogLevel != "" {
		cfg.Vsat.System.Logging.Level = strings.ToUpper(o.LogLevel)
		logger.SetLogLevel(cfg.Vsat.System.Logging.Level)
	}
	return cfg, nil
}

// Params configure New.
type Params struct {
	EnvFilePath    string
	EmbeddedConfig config.EmbeddedConfig
	Overrides      Overrides
	// DBProviders defaults to every dialect.
	DBProviders []fx.Option
}

// New builds the fx application and populates targets (pointers to *Runner, the metric
// recorder or anything else the graph provides). Call Err, then Start and Stop.
func New(p Params, targets ...interface{}) *fx.App {
	dbProviders := p.DBProviders
	if dbProviders == nil {
		dbProviders = DBProviderOptions("")
	}
	return fx.New(
		fx.Supply(
			p.EmbeddedConfig,
			fx.Annotate(p.EnvFilePath, fx.ResultTags(`name:"envFilePath"`)),
		),
		logger.Module,
		config.Module,
		fx.Decorate(p.Overrides.Apply),
		inframetrics.Module,

		storage.Module,
		local.Module,
		gcs.Module,
		gorm.Module,
		fx.Options(dbProviders...),

		Module,
		fx.Populate(targets...),
	)
}
