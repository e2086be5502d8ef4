// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"pulse/internal/delivery/http/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	StatusHandler *handler.StatusHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	statusHandler *handler.StatusHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		statusHandler: params.StatusHandler,
	}
}

// RegisterRoutes sets up all the diagnostics routes.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	e.GET("/status", r.statusHandler.GetStatus)

	// Read-only buffer projections
	e.GET("/alerts", r.statusHandler.GetAlerts)
	e.GET("/incidents", r.statusHandler.GetIncidents)
	e.GET("/system", r.statusHandler.GetSystem)
	e.POST("/events/:id/read", r.statusHandler.MarkRead)

	// User actions
	e.POST("/notifications/permission", r.statusHandler.RequestPermission)
	e.PUT("/preferences", r.statusHandler.UpdatePreference)
}
