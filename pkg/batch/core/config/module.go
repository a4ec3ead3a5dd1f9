package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts *LoggingConfig from *Config.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Vsat.System.Logging
}

// NewSLAConfigProvider extracts *SLAConfig from *Config.
func NewSLAConfigProvider(cfg *Config) *SLAConfig {
	return &cfg.Vsat.SLA
}

// Module provides the configuration and its frequently used sections to Fx.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(NewSLAConfigProvider),
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
)
