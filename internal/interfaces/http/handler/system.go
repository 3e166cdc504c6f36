package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/brokercrm/backend/internal/infrastructure/persistence"
	"github.com/brokercrm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *persistence.Database) *SystemHandler {
	return &SystemHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"BrokerCRM API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "BrokerCRM API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Database  string `json:"database" example:"ok"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Health godoc
// @Summary      Health check
// @Description  Reports service and database health
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Database:  "ok",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			response.Status = "degraded"
			response.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(response))
			return
		}
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}
