package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{"validation maps to 400", ErrCodeValidation, http.StatusBadRequest},
		{"not found maps to 404", ErrCodeNotFound, http.StatusNotFound},
		{"conflict maps to 409", ErrCodeConflict, http.StatusConflict},
		{"concurrency conflict maps to 409", ErrCodeConcurrencyConflict, http.StatusConflict},
		{"invalid state maps to 422", ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{"rate limited maps to 429", ErrCodeRateLimited, http.StatusTooManyRequests},
		{"internal maps to 500", ErrCodeInternal, http.StatusInternalServerError},
		{"unknown code defaults to 500", "ERR_NEVER_SEEN", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{"validation error", "VALIDATION_ERROR", ErrCodeValidation},
		{"not found", "NOT_FOUND", ErrCodeNotFound},
		{"conflict", "CONFLICT", ErrCodeConflict},
		{"invalid state", "INVALID_STATE", ErrCodeInvalidState},
		{"optimistic lock", "OPTIMISTIC_LOCK_ERROR", ErrCodeConcurrencyConflict},
		{"concurrency conflict", "CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"already transport format", ErrCodeNotFound, ErrCodeNotFound},
		{"unknown passes through", "SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.code))
		})
	}
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"key": "value"})

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2, 3}, 45, 2, 20)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	requestID := "req-abc-123"
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Resource not found", requestID)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Resource not found", resp.Error.Message)
	assert.Equal(t, requestID, resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	requestID := "req-def-456"
	details := []ValidationDetail{
		{Field: "planned_amount", Message: "Must be greater than 0"},
		{Field: "planned_date", Message: "This field is required"},
	}

	resp := NewValidationErrorResponse("Request validation failed", requestID, details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, requestID, resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
}

func TestErrorResponseJSONRoundTrip(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Payment not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.False(t, decoded.Success)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, ErrCodeNotFound, decoded.Error.Code)
	assert.Equal(t, "req-test-123", decoded.Error.RequestID)
}
