// handlers_health.go - Health check endpoint
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/models"
)

// HealthHandler serves the health check endpoint
type HealthHandler struct {
	version string
}

// NewHealthHandler creates a health handler
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status              string   `json:"status"`
	Version             string   `json:"version"`
	SupportedExtensions []string `json:"supported_extensions"`
}

// HandleHealth returns service status and the supported upload extensions.
// GET /api/health
func (h *HealthHandler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:              "ok",
		Version:             h.version,
		SupportedExtensions: models.SupportedExtensions(),
	})
}
