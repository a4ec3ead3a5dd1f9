// Package logger provides the leveled logging utility shared by the VSAT compliance engine and its
// surrounding application. It wraps the standard `log` package and filters messages by level.
package logger

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// LogLevel is a type representing the logging level.
type LogLevel int32

const (
	// LevelDebug is used for detailed debugging information.
	LevelDebug LogLevel = iota
	// LevelInfo is used for general informational messages.
	LevelInfo
	// LevelWarn is used for potential issues, such as sites flagged with more than one profile.
	LevelWarn
	// LevelError is used for error messages.
	LevelError
	// LevelFatal is used for fatal errors that terminate the process.
	LevelFatal
)

// String returns the upper-case name of the level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	}
	return fmt.Sprintf("LogLevel(%d)", int32(l))
}

// logLevel is the currently set global log level.
// Stored atomically because compliance workers log concurrently with CLI level changes in tests.
var logLevel atomic.Int32

func init() {
	logLevel.Store(int32(LevelInfo))
}

// ParseLevel converts a level name ("DEBUG", "INFO", "WARN", "ERROR", "FATAL", case-insensitive) into a LogLevel.
// The second return value is false when the name is not recognized.
func ParseLevel(level string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "TRACE":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL", "SILENT":
		return LevelFatal, true
	}
	return LevelInfo, false
}

// SetLogLevel sets the global log level.
// An unknown value falls back to INFO and a notice is printed.
func SetLogLevel(level string) {
	lvl, ok := ParseLevel(level)
	if !ok {
		fmt.Printf("Unknown log level '%s' specified. Defaulting to INFO level.\n", level)
	}
	logLevel.Store(int32(lvl))
}

// CurrentLevel returns the active global log level.
func CurrentLevel() LogLevel {
	return LogLevel(logLevel.Load())
}

func enabled(l LogLevel) bool {
	return CurrentLevel() <= l
}

func output(l LogLevel, prefix, format string, v ...interface{}) {
	if !enabled(l) {
		return
	}
	log.Printf("["+l.String()+"] "+prefix+format, v...)
}

// Debugf formats and outputs a DEBUG level log message.
func Debugf(format string, v ...interface{}) { output(LevelDebug, "", format, v...) }

// Infof formats and outputs an INFO level log message.
func Infof(format string, v ...interface{}) { output(LevelInfo, "", format, v...) }

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) { output(LevelWarn, "", format, v...) }

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) { output(LevelError, "", format, v...) }

// Fatalf formats and outputs a FATAL level log message, then terminates the program by calling os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}

// Logger is a component-scoped logger. Every message is prefixed with "[component] ".
type Logger struct {
	prefix string
}

// With returns a Logger that tags its messages with the given component name
// (e.g., "normalize", "eligibility", "compliance").
func With(component string) *Logger {
	return &Logger{prefix: "[" + component + "] "}
}

// Debugf outputs a DEBUG level message for the component.
func (l *Logger) Debugf(format string, v ...interface{}) { output(LevelDebug, l.prefix, format, v...) }

// Infof outputs an INFO level message for the component.
func (l *Logger) Infof(format string, v ...interface{}) { output(LevelInfo, l.prefix, format, v...) }

// Warnf outputs a WARN level message for the component.
func (l *Logger) Warnf(format string, v ...interface{}) { output(LevelWarn, l.prefix, format, v...) }

// Errorf outputs an ERROR level message for the component.
func (l *Logger) Errorf(format string, v ...interface{}) { output(LevelError, l.prefix, format, v...) }

// Writer adapts the logger to printf-style consumers such as gorm's logger.Writer.
type Writer struct {
	Level LogLevel
}

// Printf implements the printf-style writer contract.
func (w Writer) Printf(format string, v ...interface{}) {
	output(w.Level, "[gorm] ", format, v...)
}
