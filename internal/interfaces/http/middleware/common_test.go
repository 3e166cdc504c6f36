package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crmOrigin = "https://crm.brokercrm.ru"

func corsRouter(cfg CORSConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSWithConfig(cfg))
	router.GET("/payments", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func corsGet(router *gin.Engine, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/payments", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORSWithConfig(t *testing.T) {
	allowCRM := CORSConfig{
		AllowOrigins:     []string{crmOrigin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", ActorHeader},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           time.Hour,
	}

	t.Run("allowed origin gets full CORS headers", func(t *testing.T) {
		w := corsGet(corsRouter(allowCRM), crmOrigin)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, crmOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), ActorHeader)
		assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
		assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unlisted origin gets no CORS headers but the request proceeds", func(t *testing.T) {
		w := corsGet(corsRouter(allowCRM), "https://evil.example")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("empty origin list rejects all cross-origin access", func(t *testing.T) {
		w := corsGet(corsRouter(CORSConfig{}), crmOrigin)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard allows any origin without credentials", func(t *testing.T) {
		cfg := allowCRM
		cfg.AllowOrigins = []string{"*"}
		w := corsGet(corsRouter(cfg), "https://partner.example")

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight from allowed origin returns 204 with headers", func(t *testing.T) {
		router := corsRouter(allowCRM)
		req := httptest.NewRequest("OPTIONS", "/payments", nil)
		req.Header.Set("Origin", crmOrigin)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, crmOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})

	t.Run("preflight from unlisted origin still returns 204, no headers", func(t *testing.T) {
		router := corsRouter(allowCRM)
		req := httptest.NewRequest("OPTIONS", "/payments", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	// No origins until configured, actor headers instead of auth tokens
	assert.Empty(t, cfg.AllowOrigins)
	assert.Contains(t, cfg.AllowHeaders, ActorHeader)
	assert.Contains(t, cfg.AllowHeaders, ActorRoleHeader)
	assert.NotContains(t, cfg.AllowHeaders, "Authorization")
	assert.Contains(t, cfg.ExposeHeaders, "X-RateLimit-Remaining")
	assert.True(t, cfg.AllowCredentials)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/payments", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("generates an id when none is supplied", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/payments", nil))

		id := w.Header().Get("X-Request-ID")
		require.NotEmpty(t, id)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagates a caller-supplied id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/payments", nil)
		req.Header.Set("X-Request-ID", "ingress-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "ingress-42", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "ingress-42", w.Body.String())
	})

	t.Run("generated ids are unique", func(t *testing.T) {
		assert.NotEqual(t, generateRequestID(), generateRequestID())
	})
}

func secureRouter(cfg SecurityConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecureWithConfig(cfg))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestSecure(t *testing.T) {
	t.Run("default headers", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(Secure())
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
		assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
		assert.Contains(t, w.Header().Get("Permissions-Policy"), "camera=()")
		// HSTS requires TLS termination, off by default
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("HSTS header assembled from config", func(t *testing.T) {
		router := secureRouter(SecurityConfig{
			HSTSEnabled:           true,
			HSTSMaxAge:            86400,
			HSTSIncludeSubdomains: true,
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, "max-age=86400; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("disabled sections emit no headers", func(t *testing.T) {
		router := secureRouter(SecurityConfig{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Permissions-Policy"))
		// The unconditional hardening headers remain
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("custom permissions policy directive", func(t *testing.T) {
		router := secureRouter(SecurityConfig{
			PermissionsPolicyEnabled:   true,
			PermissionsPolicyDirective: "geolocation=(self), microphone=()",
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, "geolocation=(self), microphone=()", w.Header().Get("Permissions-Policy"))
	})
}

func TestDefaultSecurityConfig(t *testing.T) {
	cfg := DefaultSecurityConfig()

	assert.False(t, cfg.HSTSEnabled)
	assert.Equal(t, 31536000, cfg.HSTSMaxAge)
	assert.True(t, cfg.CSPEnabled)
	assert.Contains(t, cfg.CSPDirective, "frame-ancestors 'none'")
	assert.True(t, cfg.PermissionsPolicyEnabled)
	assert.Contains(t, cfg.PermissionsPolicyDirective, "payment=()")
}
