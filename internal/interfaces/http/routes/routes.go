// Package routes wires handlers and middleware onto the gin engine.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"streamgate/internal/interfaces/http/handlers"
	"streamgate/internal/interfaces/http/middleware"
	"streamgate/internal/shared/metrics"
)

// RouteConfig holds dependencies for the API routes.
type RouteConfig struct {
	IdentityHandler    *handlers.IdentityHandler
	EntitlementHandler *handlers.EntitlementHandler
	AuthMiddleware     *middleware.AuthMiddleware
	Gatherer           prometheus.Gatherer
}

// Setup configures all routes on the engine. Everything under /api
// requires an authorized credential; /healthz and /metrics do not.
func Setup(engine *gin.Engine, cfg *RouteConfig) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler(cfg.Gatherer)))
	}

	api := engine.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.GET("/identity", cfg.IdentityHandler.GetIdentity)

		api.GET("/entitlements", cfg.EntitlementHandler.ListSubscriptions)
		api.GET("/entitlements/sessions", cfg.EntitlementHandler.ListSessions)
		api.POST("/entitlements/session/start", cfg.EntitlementHandler.StartSession)
	}
}
