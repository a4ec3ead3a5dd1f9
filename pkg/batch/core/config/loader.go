package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string              `name:"envFilePath" optional:"true"`
	Expander       EnvironmentExpander `optional:"true"`
}

// loadConfig builds the configuration in layers: defaults, then the embedded YAML
// (with ${VAR} placeholders expanded), then VSAT_* environment variables.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig, expander EnvironmentExpander) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	if expander == nil {
		expander = NewOsEnvironmentExpander()
	}
	expanded, err := expander.Expand(embeddedConfig)
	if err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindConfig, "failed to expand embedded config", err)
	}

	// Decoding onto the defaults keeps every key the YAML leaves out.
	cfg := NewConfig()
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindConfig, "failed to unmarshal embedded config", err)
	}
	cfg.EmbeddedConfig = embeddedConfig

	if err := loadStructFromEnv(reflect.ValueOf(&cfg.Vsat).Elem(), "VSAT_"); err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindConfig, "failed to load config from environment variables", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads configuration from the embedded YAML, a .env file and the environment.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig, nil)
}

// NewConfigProvider is an Fx provider that loads *Config, publishes it as GlobalConfig
// and applies the configured log level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig, params.Expander)
	if err != nil {
		return nil, err
	}

	GlobalConfig = cfg

	logger.SetLogLevel(cfg.Vsat.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.Vsat.System.Logging.Level)
	return cfg, nil
}

// validate rejects settings the engine cannot work with.
func validate(cfg *Config) error {
	sla := cfg.Vsat.SLA
	fail := func(format string, a ...interface{}) error {
		return exception.NewEngineErrorf(moduleName, exception.KindConfig, format, a...)
	}
	if sla.MinTests < 1 || sla.OutageMinTests < 0 || sla.OutageMinTests > sla.MinTests {
		return fail("invalid sample thresholds: min_tests=%d outage_min_tests=%d", sla.MinTests, sla.OutageMinTests)
	}
	if sla.Percentile <= 0 || sla.Percentile > 100 {
		return fail("percentile must be in (0,100], got %v", sla.Percentile)
	}
	if sla.HourFrom < 0 || sla.HourTo > 23 || sla.HourFrom > sla.HourTo {
		return fail("invalid hour window %d..%d", sla.HourFrom, sla.HourTo)
	}
	if sla.ErrorTruncateLength < 1 || sla.FailureTopN < 0 {
		return fail("invalid failure breakdown settings: truncate_length=%d top_n=%d", sla.ErrorTruncateLength, sla.FailureTopN)
	}
	if sla.Workers < 1 {
		return fail("workers must be at least 1, got %d", sla.Workers)
	}
	if _, err := cfg.Location(); err != nil {
		return exception.NewEngineError(moduleName, exception.KindConfig, fmt.Sprintf("unknown timezone %q", cfg.Vsat.System.Timezone), err)
	}
	for _, sink := range cfg.Vsat.Report.Sinks {
		switch strings.ToLower(sink) {
		case "xlsx", "parquet", "database":
		default:
			return fail("unknown report sink %q", sink)
		}
	}
	return nil
}

// loadStructFromEnv recursively loads configuration values into a struct from environment variables.
// Variable names are the upper-cased yaml tags joined by "_" (e.g., VSAT_SLA_MIN_TESTS).
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField converts value to the field's kind. Slices take comma-separated values.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	case reflect.Slice:
		var parts []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
		for i, p := range parts {
			if err := setField(slice.Index(i), p); err != nil {
				return err
			}
		}
		field.Set(slice)
	}
	return nil
}
