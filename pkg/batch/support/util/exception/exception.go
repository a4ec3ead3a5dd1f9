// Package exception provides the error types raised by the VSAT compliance engine and its loaders.
// Errors are classified by kind (schema, parse, config, I/O) so that callers can decide whether a run
// must abort or whether only the offending source file is rejected.
package exception

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// Kind classifies an EngineError.
type Kind string

const (
	// KindSchema marks a required column missing from a source. Aborts the run.
	KindSchema Kind = "SchemaError"
	// KindParse marks a malformed value (timestamp, profile encoding, rate) in a source row.
	KindParse Kind = "ParseError"
	// KindConfig marks invalid configuration.
	KindConfig Kind = "ConfigError"
	// KindIO marks an unreadable source or an unwritable sink.
	KindIO Kind = "IOError"
)

// Sentinel errors matched with errors.Is.
var (
	ErrSchema        = errors.New(string(KindSchema))
	ErrParse         = errors.New(string(KindParse))
	ErrConfig        = errors.New(string(KindConfig))
	ErrIO            = errors.New(string(KindIO))
	ErrMixedProfiles = errors.New("MixedProfilesError")
	ErrEmptyInput    = errors.New("EmptyInputError")
)

// errorRegistry maps error names used in configuration to concrete error instances.
var errorRegistry = make(map[string]error)

// registryMutex protects access to errorRegistry.
var registryMutex sync.RWMutex

// RegisterErrorType registers an error prototype under a name.
// Registered names are resolved by IsErrorOfType with errors.Is.
//
// If prototype is nil or name is empty, this function panics.
func RegisterErrorType(name string, prototype error) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if name == "" {
		panic("Error type name cannot be empty")
	}
	if prototype == nil {
		panic(fmt.Sprintf("Cannot register nil prototype for name: %s", name))
	}

	errorRegistry[name] = prototype
}

// IsErrorTypeRegistered checks if the specified error type name is registered in the registry.
func IsErrorTypeRegistered(name string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := errorRegistry[name]
	return ok
}

// EngineError is the error type raised by the engine packages.
type EngineError struct {
	// Module indicates where the error occurred (e.g., "normalize", "reader", "writer", "config").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// Kind classifies the error.
	Kind Kind
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// NewEngineError creates a new EngineError of the given kind.
func NewEngineError(module string, kind Kind, message string, originalErr error) *EngineError {
	return &EngineError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		Kind:        kind,
		StackTrace:  captureStack(),
	}
}

// NewEngineErrorf creates a new EngineError using a format string.
// If the last argument is an error it becomes OriginalErr and is not used for formatting.
func NewEngineErrorf(module string, kind Kind, format string, a ...interface{}) *EngineError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	return NewEngineError(module, kind, fmt.Sprintf(format, args...), originalErr)
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *EngineError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is the sentinel for this error's kind.
func (e *EngineError) Is(target error) bool {
	switch target {
	case ErrSchema:
		return e.Kind == KindSchema
	case ErrParse:
		return e.Kind == KindParse
	case ErrConfig:
		return e.Kind == KindConfig
	case ErrIO:
		return e.Kind == KindIO
	}
	return false
}

// SchemaError reports a required column that is absent from a source.
type SchemaError struct {
	Source string
	Column string
}

// NewSchemaError wraps a SchemaError in an EngineError.
func NewSchemaError(module, source, column string) *EngineError {
	return NewEngineError(module, KindSchema,
		fmt.Sprintf("required column %q missing from %s", column, source),
		&SchemaError{Source: source, Column: column})
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing column %q", e.Column)
}

// Is matches ErrSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// ParseError locates a malformed value. Row is the 1-based data row (header excluded).
type ParseError struct {
	Source string
	Row    int
	Column string
	Value  string
	Err    error
}

// NewParseError wraps a ParseError in an EngineError.
func NewParseError(module, source string, row int, column, value string, err error) *EngineError {
	return NewEngineError(module, KindParse,
		fmt.Sprintf("cannot parse %s at %s row %d", column, source, row),
		&ParseError{Source: source, Row: row, Column: column, Value: value, Err: err})
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("value %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("value %q", e.Value)
}

// Unwrap returns the underlying parse failure.
func (e *ParseError) Unwrap() error { return e.Err }

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// IsFatal reports whether err aborts the whole run rather than rejecting a single source.
// Schema, config and I/O errors are fatal; parse errors are fatal only for their source file.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind != KindParse
	}
	return true
}

// IsErrorOfType checks if an error matches a specified type name.
// errorTypeName can be a registered name, a Go type name (e.g., "*exception.ParseError"),
// or a substring of an error message. Registered names are checked first with errors.Is.
func IsErrorOfType(err error, errorTypeName string) bool {
	if err == nil {
		return false
	}

	registryMutex.RLock()
	targetError, ok := errorRegistry[errorTypeName]
	registryMutex.RUnlock()

	if ok && errors.Is(err, targetError) {
		return true
	}

	currentErr := err
	for currentErr != nil {
		if strings.Contains(currentErr.Error(), errorTypeName) {
			return true
		}
		errType := reflect.TypeOf(currentErr)
		if errType != nil {
			if errType.String() == errorTypeName || (errType.Kind() == reflect.Ptr && errType.Elem().String() == errorTypeName) {
				return true
			}
		}
		currentErr = errors.Unwrap(currentErr)
	}

	return false
}

func init() {
	RegisterErrorType(string(KindSchema), ErrSchema)
	RegisterErrorType(string(KindParse), ErrParse)
	RegisterErrorType(string(KindConfig), ErrConfig)
	RegisterErrorType(string(KindIO), ErrIO)
	RegisterErrorType("MixedProfilesError", ErrMixedProfiles)
	RegisterErrorType("EmptyInputError", ErrEmptyInput)

	RegisterErrorType("io.EOF", io.EOF)
	RegisterErrorType("context.DeadlineExceeded", context.DeadlineExceeded)
	RegisterErrorType("context.Canceled", context.Canceled)
	RegisterErrorType("sql.ErrNoRows", sql.ErrNoRows)
}

// ExtractErrorMessage returns the Message field of an EngineError, or Error() otherwise.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Message
	}
	return err.Error()
}
