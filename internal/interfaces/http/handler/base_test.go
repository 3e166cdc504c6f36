package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokercrm/backend/internal/domain/shared"
	"github.com/brokercrm/backend/internal/interfaces/http/dto"
	"github.com/brokercrm/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/payments", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*gin.Context)
		want  string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "req-from-context")
			},
			want: "req-from-context",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(RequestIDKey, "req-from-header")
			},
			want: "req-from-header",
		},
		{
			name:  "empty when absent",
			setup: func(c *gin.Context) {},
			want:  "",
		},
		{
			name: "context wins over header",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "req-context")
				c.Request.Header.Set(RequestIDKey, "req-header")
			},
			want: "req-context",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(t)
			tt.setup(c)

			assert.Equal(t, tt.want, getRequestID(c))
		})
	}
}

func TestGetActor(t *testing.T) {
	t.Run("resolved actor", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set(middleware.ActorKey, "manager-17")

		assert.Equal(t, "manager-17", getActor(c))
	})

	t.Run("system fallback", func(t *testing.T) {
		c, _ := newTestContext(t)

		assert.Equal(t, "system", getActor(c))
	})
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.Success(c, gin.H{"payment_id": "5b8f", "confirmation_status": "pending"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	payments := []gin.H{{"sequence": 1}, {"sequence": 2}}
	h.SuccessWithMeta(c, payments, 42, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(42), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.Created(c, gin.H{"id": "9d2c4f6a"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerNoContent(t *testing.T) {
	h := &BaseHandler{}

	router := gin.New()
	router.DELETE("/payments/:id", func(c *gin.Context) {
		h.NoContent(c)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/payments/5b8f", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name     string
		respond  func(*BaseHandler, *gin.Context)
		wantCode int
		wantErr  string
	}{
		{
			name: "BadRequest",
			respond: func(h *BaseHandler, c *gin.Context) {
				h.BadRequest(c, "payment id is not a uuid")
			},
			wantCode: http.StatusBadRequest,
			wantErr:  dto.ErrCodeBadRequest,
		},
		{
			name: "NotFound",
			respond: func(h *BaseHandler, c *gin.Context) {
				h.NotFound(c, "payment not found")
			},
			wantCode: http.StatusNotFound,
			wantErr:  dto.ErrCodeNotFound,
		},
		{
			name: "Conflict",
			respond: func(h *BaseHandler, c *gin.Context) {
				h.Conflict(c, "payment is already confirmed")
			},
			wantCode: http.StatusConflict,
			wantErr:  dto.ErrCodeConflict,
		},
		{
			name: "InternalError",
			respond: func(h *BaseHandler, c *gin.Context) {
				h.InternalError(c, "storage unavailable")
			},
			wantCode: http.StatusInternalServerError,
			wantErr:  dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(t)

			tt.respond(h, c)

			assert.Equal(t, tt.wantCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
		})
	}
}

func TestBaseHandlerErrorCarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)
	c.Set(RequestIDKey, "req-8842")

	h.BadRequest(c, "payment id is not a uuid")

	assert.Equal(t, "req-8842", decodeResponse(t, w).Error.RequestID)
}

func TestBaseHandlerValidationError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)
	c.Set(RequestIDKey, "req-9911")

	details := []dto.ValidationDetail{
		{Field: "planned_amount", Message: "Must be positive"},
		{Field: "policy_id", Message: "Required"},
	}
	h.ValidationError(c, details)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-9911", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
}

func TestBaseHandlerHandleDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "not found",
			err:      shared.ErrNotFound,
			wantCode: http.StatusNotFound,
			wantErr:  dto.ErrCodeNotFound,
		},
		{
			name:     "already exists",
			err:      shared.ErrAlreadyExists,
			wantCode: http.StatusConflict,
			wantErr:  dto.ErrCodeAlreadyExists,
		},
		{
			name:     "invalid input",
			err:      shared.ErrInvalidInput,
			wantCode: http.StatusBadRequest,
			wantErr:  dto.ErrCodeInvalidInput,
		},
		{
			name:     "invalid state",
			err:      shared.ErrInvalidState,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  dto.ErrCodeInvalidState,
		},
		{
			name:     "concurrency conflict",
			err:      shared.ErrConcurrencyConflict,
			wantCode: http.StatusConflict,
			wantErr:  dto.ErrCodeConcurrencyConflict,
		},
		{
			name:     "validation error",
			err:      shared.NewValidationError("planned amount must be positive"),
			wantCode: http.StatusBadRequest,
			wantErr:  dto.ErrCodeValidation,
		},
		{
			name:     "conflict error",
			err:      shared.NewConflictError("payment is already confirmed"),
			wantCode: http.StatusConflict,
			wantErr:  dto.ErrCodeConflict,
		},
		{
			name:     "stale optimistic lock",
			err:      shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction"),
			wantCode: http.StatusConflict,
			wantErr:  dto.ErrCodeConcurrencyConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(t)

			h.HandleDomainError(c, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
		})
	}
}

func TestBaseHandlerHandleDomainErrorCarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)
	c.Set(RequestIDKey, "req-7123")

	h.HandleDomainError(c, shared.ErrNotFound)

	assert.Equal(t, "req-7123", decodeResponse(t, w).Error.RequestID)
}

func TestBaseHandlerHandleNonDomainError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.HandleDomainError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
}

func TestBaseHandlerHandleError(t *testing.T) {
	h := &BaseHandler{}

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newTestContext(t)

		h.HandleError(c, nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("domain error maps to its status", func(t *testing.T) {
		c, w := newTestContext(t)

		h.HandleError(c, shared.ErrNotFound)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("plain error maps to 500", func(t *testing.T) {
		c, w := newTestContext(t)

		h.HandleError(c, assert.AnError)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("wrapped domain error unwraps", func(t *testing.T) {
		c, w := newTestContext(t)

		h.HandleError(c, fmt.Errorf("loading payment: %w", shared.ErrNotFound))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)
	})
}
