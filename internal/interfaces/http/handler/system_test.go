package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewSystemHandler(nil)
	router := gin.New()
	router.GET("/system/info", handler.GetSystemInfo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/system/info", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool               `json:"success"`
		Data    SystemInfoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "BrokerCRM API", body.Data.Name)
	assert.NotEmpty(t, body.Data.GoVersion)
	assert.NotEmpty(t, body.Data.Uptime)
}

func TestSystemHandler_Health_NoDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewSystemHandler(nil)
	router := gin.New()
	router.GET("/health", handler.Health)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Data.Status)
}
