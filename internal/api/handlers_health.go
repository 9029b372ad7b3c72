// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	captures CaptureManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, captures CaptureManager) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		captures: captures,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.captures != nil {
		resp["captures"] = h.captures.Count()
	}
	return c.JSON(http.StatusOK, resp)
}
