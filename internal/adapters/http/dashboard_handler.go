package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

// DashboardHandler serves the dashboard summary and the read-only reference areas
type DashboardHandler struct {
	dashboard ports.DashboardService
	reference ports.ReferenceRepository
	logger    *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard ports.DashboardService, reference ports.ReferenceRepository, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		reference: reference,
		logger:    logger,
	}
}

func (h *DashboardHandler) Summary(c echo.Context) error {
	summary, err := h.dashboard.Summary(c.Request().Context())
	if err != nil {
		return failure(h.logger, "Dashboard summary failed", err)
	}
	return c.JSON(http.StatusOK, summary)
}

// Area returns a handler serving one store area as stored
func (h *DashboardHandler) Area(area string) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := h.reference.Raw(c.Request().Context(), area)
		if err != nil {
			return failure(h.logger, "Read area failed", err, "area", area)
		}
		return c.JSONBlob(http.StatusOK, raw)
	}
}

// Database serves the whole store document
func (h *DashboardHandler) Database(c echo.Context) error {
	data, err := h.reference.Snapshot(c.Request().Context())
	if err != nil {
		return failure(h.logger, "Snapshot failed", err)
	}
	return c.JSONBlob(http.StatusOK, data)
}
