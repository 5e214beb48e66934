package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestStructuredError_Error(t *testing.T) {
	err := NewError(ErrCodeAssertionFailed, "Wrong background color").
		WithContext("selector", "body").
		WithContext("property", "background-color").
		Build()

	assert.Equal(t,
		"ASSERTION_FAILED: Wrong background color [property=background-color, selector=body]",
		err.Error())
}

func TestStructuredError_Cause(t *testing.T) {
	cause := errors.New("websocket closed")
	err := NewErrorf(ErrCodeBrowserFailed, "title lookup failed").WithCause(cause).Build()

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "caused by: websocket closed")
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"direct", NewError(ErrCodeElementNotFound, "x").Build(), ErrCodeElementNotFound},
		{"wrapped", fmt.Errorf("case title: %w", NewError(ErrCodePreconditionNotMet, "x").Build()), ErrCodePreconditionNotMet},
		{"plain", errors.New("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(ErrCodeAssertionFailed, "mismatch").Build())
	assert.True(t, HasCode(err, ErrCodeAssertionFailed))
	assert.False(t, HasCode(err, ErrCodeScriptFailed))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	assert.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	lvl, err = ParseLevel("")
	assert.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn", Development: true})
	assert.NoError(t, err)
	assert.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
