package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode_Unwraps(t *testing.T) {
	err := fmt.Errorf("resolve 8544: %w", NewStoreUnavailableError("lookup", stderrors.New("conn refused")))

	assert.True(t, HasCode(err, ErrCodeStoreUnavailable))
	assert.False(t, HasCode(err, ErrCodeInvalidInput))
	assert.False(t, HasCode(stderrors.New("plain"), ErrCodeInternal))
}

func TestIsInvalidInput(t *testing.T) {
	assert.True(t, IsInvalidInput(NewInvalidInputError("empty description")))
	assert.True(t, IsInvalidInput(NewInvalidComponentDataError("sum 120")))
	assert.True(t, IsInvalidInput(NewValidationFailedError("components: required")))
	assert.False(t, IsInvalidInput(NewCacheFailureError("get", stderrors.New("timeout"))))
}

func TestAsStandardError_WrapsUnknown(t *testing.T) {
	cause := stderrors.New("boom")
	std := AsStandardError(cause)
	assert.Equal(t, ErrCodeInternal, std.Code)
	assert.Equal(t, "boom", std.Details)
	assert.ErrorIs(t, std, cause)

	known := NewInvalidInputError("x")
	assert.Same(t, known, AsStandardError(known))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StandardError
		wantCode string
		retries  int
	}{
		{"component data maps to invalid input", NewInvalidComponentDataError("sum 120"), "INVALID_INPUT", 0},
		{"store outage retries", NewStoreUnavailableError("search", stderrors.New("down")), "STORE_UNAVAILABLE", 3},
		{"cascade outage retries twice", NewResolutionUnavailableError("8544", 4), "RESOLUTION_UNAVAILABLE", 2},
		{"notification retries", NewNotificationSendFailedError("ses", stderrors.New("throttled")), "NOTIFICATION_SEND_FAILED", 3},
		{"unknown code passes through", AsStandardError(stderrors.New("x")), "INTERNAL_ERROR", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, b.Code)
			assert.Equal(t, tt.retries, b.Retries)
			assert.Equal(t, tt.retries > 0, IsRetryableErrorCode(tt.err.Code))
			assert.Equal(t, string(tt.err.Code), b.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestBPMNError_ToErrorVariables(t *testing.T) {
	std := NewValidationFailedError("components.0.valuePercentage: must be <= 100").
		WithMetadata("validationErrors", []string{"components.0.valuePercentage"})
	vars := ConvertToBPMNError(std).ToErrorVariables()

	require.Contains(t, vars, "validationErrors")
	assert.Equal(t, "INVALID_INPUT", vars["errorCode"])
	assert.Equal(t, false, vars["retryable"])
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidComponentData))
	assert.Equal(t, "STORE", GetErrorCategory(ErrCodeResolutionUnavailable))
	assert.Equal(t, "CACHE", GetErrorCategory(ErrCodeCacheFailure))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "INFRASTRUCTURE", GetErrorCategory("TIMEOUT_ERROR"))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
