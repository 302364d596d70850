package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/imf-gadgets/gadget-api/internal/apierr"
	"github.com/imf-gadgets/gadget-api/internal/logging"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	DB Pinger
}

func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Ready reports 503 while the database cannot be reached.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		logging.FromContext(ctx).Warn("readiness_failed", "status", http.StatusServiceUnavailable, "error", err)
		return apierr.Write(c, http.StatusServiceUnavailable, apierr.ServiceUnavailable, "Database unreachable")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
}
