package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/imf-gadgets/gadget-api/internal/apierr"
	"github.com/imf-gadgets/gadget-api/internal/handlers"
	"github.com/imf-gadgets/gadget-api/internal/ids"
	"github.com/imf-gadgets/gadget-api/internal/metrics"
	"github.com/imf-gadgets/gadget-api/internal/middleware/auth"
	loggingmw "github.com/imf-gadgets/gadget-api/internal/middleware/logging"
	"github.com/imf-gadgets/gadget-api/internal/middleware/ratelimit"
)

const maxBody = "1M"

type Deps struct {
	Auth    *handlers.AuthHandler
	Gadgets *handlers.GadgetHandler
	Health  *handlers.HealthHandler
	Session *auth.Session
	Limiter *ratelimit.Limiter
	Metrics *metrics.Metrics
}

// NewEcho builds the echo instance with the middleware chain every route shares.
func NewEcho(base *slog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apierr.HTTPErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: ids.NewRequestID}),
		loggingmw.RequestLogger(base),
	)
	// metrics sit outside Recover so recovered panics are counted as 500s
	if m != nil {
		e.Use(m.Middleware)
	}
	e.Use(
		middleware.Recover(),
		middleware.BodyLimit(maxBody),
	)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", d.Health.Live)
	e.GET("/health/ready", d.Health.Ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")

	var limited []echo.MiddlewareFunc
	if d.Limiter != nil {
		limited = append(limited, d.Limiter.Middleware)
	}

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", d.Auth.Signup, limited...)
	authGroup.POST("/login", d.Auth.Login, limited...)
	authGroup.POST("/logout", d.Auth.Logout)

	gadgets := api.Group("/gadgets", d.Session.RequireLogin)

	gadgets.GET("", d.Gadgets.List)
	gadgets.POST("", d.Gadgets.Create)
	gadgets.PATCH("", d.Gadgets.Update)
	gadgets.DELETE("", d.Gadgets.Decommission)
	gadgets.GET("/search", d.Gadgets.Search)
	gadgets.POST("/:gadgetId/self-destruct", d.Gadgets.SelfDestruct)
}
