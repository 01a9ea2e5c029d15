package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App, handler *Handler, adminUser, adminPassword string) {
	// Global middlewares
	app.Use(RequestID())
	app.Use(ErrorHandler())

	// Health checks (no rate limiting)
	app.Get("/health", handler.HealthCheck)
	app.Get("/ready", handler.ReadinessCheck)

	// Prometheus metrics endpoint (no rate limiting)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation (no rate limiting)
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 with rate limiting and request metrics
	v1 := app.Group("/api/v1")
	v1.Use(RateLimiter())
	v1.Use(PrometheusMiddleware())

	// Bond routes
	bonds := v1.Group("/bonds")
	bonds.Get("/search", handler.SearchBonds)
	bonds.Get("/report", handler.BondReport)

	// Futures routes
	futures := v1.Group("/futures")
	futures.Get("/:ticker/candles", handler.GetCandles)
	futures.Get("/:ticker/export", handler.ExportCandles)

	// Admin routes
	admin := v1.Group("/admin")
	admin.Use(basicauth.New(basicauth.Config{
		Users: map[string]string{adminUser: adminPassword},
	}))
	admin.Delete("/cache/:pattern", handler.InvalidateCache)
	admin.Get("/stats", handler.GetSystemStats)
}
