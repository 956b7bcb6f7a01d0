package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "test_error",
		Message:  "test message",
	}
	assert.Equal(t, "test message", err.Error())

	withCause := err.WithCause(errors.New("underlying error"))
	assert.Equal(t, "test message: underlying error", withCause.Error())
}

func TestExecutionError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("opening: %w", ErrUnknownMode.WithMessage(`unknown driver mode "grid"`))

	assert.True(t, errors.Is(err, ErrUnknownMode))
	assert.False(t, errors.Is(err, ErrInvalidConfig))
}

func TestExecutionError_WithDetailsMerges(t *testing.T) {
	base := ErrMissingRequired.WithDetails(map[string]interface{}{"a": 1})
	merged := base.WithDetails(map[string]interface{}{"b": 2})

	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, merged.Details)
	assert.Len(t, ErrMissingRequired.Details, 0)
}

func TestLoadingError_MessageAndCause(t *testing.T) {
	cause := errors.New("timed out after 10s")
	err := NewLoadingError("PhoneNumberWidget not loaded", cause)

	assert.Equal(t, "PhoneNumberWidget not loaded\ntimed out after 10s", err.Error())
	assert.True(t, errors.Is(err, cause))

	var loadErr *LoadingError
	require.True(t, errors.As(fmt.Errorf("flow: %w", err), &loadErr))
	assert.Equal(t, "PhoneNumberWidget not loaded", loadErr.Message)
}

func TestLoadingError_NilCause(t *testing.T) {
	err := &LoadingError{Message: "not loaded"}
	assert.Equal(t, "not loaded", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ErrCategoryNone},
		{"plain", errors.New("x"), ErrCategoryNone},
		{"config", ErrInvalidConfig.WithCause(errors.New("bad yaml")), ErrCategoryConfig},
		{"wrapped connection", fmt.Errorf("get: %w", ErrSessionCreate), ErrCategoryConnection},
		{"loading", NewLoadingError("not loaded", errors.New("timeout")), ErrCategoryTimeout},
		{"loading over config", NewLoadingError("not loaded", ErrUnknownMode), ErrCategoryConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryOf(tt.err))
		})
	}
}

func TestIsConfigError(t *testing.T) {
	assert.True(t, IsConfigError(ErrMissingRequired))
	assert.False(t, IsConfigError(ErrNoActiveSession))
}

func TestCaptureConfig_ShouldCapture(t *testing.T) {
	cfg := DefaultCaptureConfig()

	assert.True(t, cfg.ShouldCapture(StatusFailed))
	assert.True(t, cfg.ShouldCapture(StatusSkipped))
	assert.False(t, cfg.ShouldCapture(StatusPassed))
	assert.False(t, cfg.ShouldCapture(StatusRunning))
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "passed", StatusPassed.String())
	assert.Equal(t, "unknown", TestStatus(99).String())
	assert.True(t, StatusSkipped.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.Equal(t, "config", ErrCategoryConfig.String())

	text, err := StatusFailed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "failed", string(text))
}

func TestBounds_Center(t *testing.T) {
	b := Bounds{X: 100, Y: 200, Width: 200, Height: 50}
	assert.Equal(t, Point{X: 200, Y: 225}, b.Center())
}

func TestLocator_String(t *testing.T) {
	assert.Equal(t, "id=com.app:id/login", ID("com.app:id/login").String())
	assert.Equal(t, "xpath=//a", XPath("//a").String())
}

func TestStatus_UnmarshalText(t *testing.T) {
	var s TestStatus
	require.NoError(t, s.UnmarshalText([]byte("skipped")))
	assert.Equal(t, StatusSkipped, s)
	assert.Error(t, s.UnmarshalText([]byte("exploded")))
}
