package exception_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
)

func TestNewEngineError(t *testing.T) {
	originalErr := errors.New("permission denied")
	ee := exception.NewEngineError("reader", exception.KindIO, "cannot open tests.xlsx", originalErr)

	assert.Equal(t, "reader", ee.Module)
	assert.Equal(t, exception.KindIO, ee.Kind)
	assert.Equal(t, originalErr, ee.Unwrap())
	assert.Equal(t, "[reader] cannot open tests.xlsx: permission denied", ee.Error())
	assert.NotEmpty(t, ee.StackTrace)
	assert.ErrorIs(t, ee, exception.ErrIO)
	assert.NotErrorIs(t, ee, exception.ErrParse)
}

func TestNewEngineErrorf(t *testing.T) {
	ee := exception.NewEngineErrorf("config", exception.KindConfig, "unknown sink %q", "ftp")
	assert.Nil(t, ee.Unwrap())
	assert.Equal(t, `[config] unknown sink "ftp"`, ee.Error())

	cause := errors.New("boom")
	ee = exception.NewEngineErrorf("writer", exception.KindIO, "sink %s failed", "xlsx", cause)
	assert.Equal(t, cause, ee.Unwrap())
	assert.Equal(t, "sink xlsx failed", ee.Message)
}

func TestSchemaError(t *testing.T) {
	err := exception.NewSchemaError("normalize", "op.xlsx", "Resultado")

	require.ErrorIs(t, err, exception.ErrSchema)
	var se *exception.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Resultado", se.Column)
	assert.Equal(t, "op.xlsx", se.Source)
	assert.True(t, exception.IsFatal(err))
}

func TestParseError(t *testing.T) {
	cause := errors.New("bad layout")
	err := exception.NewParseError("normalize", "op.xlsx", 7, "Fecha de la Prueba", "yesterday", cause)

	require.ErrorIs(t, err, exception.ErrParse)
	assert.ErrorIs(t, err, cause)
	var pe *exception.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 7, pe.Row)
	assert.Equal(t, "yesterday", pe.Value)
	assert.Contains(t, err.Error(), "op.xlsx row 7")
	assert.False(t, exception.IsFatal(err))
}

func TestIsFatal(t *testing.T) {
	assert.False(t, exception.IsFatal(nil))
	assert.True(t, exception.IsFatal(errors.New("plain")))
	assert.True(t, exception.IsFatal(fmt.Errorf("wrapped: %w", exception.NewEngineError("x", exception.KindConfig, "m", nil))))
}

func TestIsErrorOfType(t *testing.T) {
	wrapped := fmt.Errorf("stage failed: %w", exception.ErrMixedProfiles)
	assert.True(t, exception.IsErrorOfType(wrapped, "MixedProfilesError"))
	assert.True(t, exception.IsErrorOfType(context.Canceled, "context.Canceled"))

	pe := exception.NewParseError("normalize", "a.csv", 1, "profile", "x", nil)
	assert.True(t, exception.IsErrorOfType(pe, "ParseError"))
	assert.True(t, exception.IsErrorOfType(pe, "*exception.ParseError"))
	assert.False(t, exception.IsErrorOfType(pe, "SchemaError"))
	assert.False(t, exception.IsErrorOfType(nil, "ParseError"))
}

func TestRegisterErrorType(t *testing.T) {
	custom := errors.New("custom")
	exception.RegisterErrorType("CustomTestError", custom)
	assert.True(t, exception.IsErrorTypeRegistered("CustomTestError"))
	assert.True(t, exception.IsErrorOfType(fmt.Errorf("x: %w", custom), "CustomTestError"))

	assert.Panics(t, func() { exception.RegisterErrorType("", custom) })
	assert.Panics(t, func() { exception.RegisterErrorType("nil", nil) })
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
	ee := exception.NewEngineError("writer", exception.KindIO, "upload failed", errors.New("quota"))
	assert.Equal(t, "upload failed", exception.ExtractErrorMessage(fmt.Errorf("w: %w", ee)))
	assert.Equal(t, "plain", exception.ExtractErrorMessage(errors.New("plain")))
}
