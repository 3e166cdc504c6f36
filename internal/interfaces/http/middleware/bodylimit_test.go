package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupBodyLimitRouter(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BodyLimit(limit))
	router.POST("/payments", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestBodyLimit(t *testing.T) {
	t.Run("passes a payload under the cap", func(t *testing.T) {
		router := setupBodyLimitRouter(1024)

		req := httptest.NewRequest("POST", "/payments",
			strings.NewReader(`{"planned_amount": "100000"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects a declared oversized payload with 413", func(t *testing.T) {
		router := setupBodyLimitRouter(64)

		req := httptest.NewRequest("POST", "/payments",
			strings.NewReader(strings.Repeat("x", 200)))
		req.ContentLength = 200
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_PAYLOAD_TOO_LARGE")
	})

	t.Run("ignores bodyless requests", func(t *testing.T) {
		router := setupBodyLimitRouter(8)
		router.GET("/payments", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/payments", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("cuts off chunked bodies past the cap", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(BodyLimit(32))
		router.POST("/payments", func(c *gin.Context) {
			buf := make([]byte, 256)
			if _, err := c.Request.Body.Read(buf); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.String(http.StatusOK, "ok")
		})

		// No Content-Length, so only the reader guard can catch it
		req := httptest.NewRequest("POST", "/payments",
			strings.NewReader(strings.Repeat("x", 128)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
