package logger

import "go.uber.org/fx"

// Module installs the fx event adapter so container events go through the leveled logger.
var Module = fx.Options(
	fx.WithLogger(NewFxLoggerAdapter),
)
