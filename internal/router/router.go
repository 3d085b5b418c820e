package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/soltixdb/insight/internal/config"
	"github.com/soltixdb/insight/internal/handlers"
	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/middleware"
	"github.com/soltixdb/insight/internal/utils"
)

// BodyLimit caps request bodies; MaxSeriesLength numbers fit comfortably
const BodyLimit = 8 * 1024 * 1024

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, h *handlers.Handler, authCfg config.AuthConfig) {
	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	auth := middleware.APIKeyAuth(logger, authCfg)

	app.Post("/predict", auth, h.Predict)
	app.Post("/detect-anomalies", auth, h.DetectAnomalies)
	app.Get("/insights", auth, h.Insights)

	// 404 handler
	app.Use(h.NotFound)
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, h *handlers.Handler, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Insight",
		DisableStartupMessage: true,
		BodyLimit:             BodyLimit,
		ReadTimeout:           utils.DefaultRequestTimeout,
		WriteTimeout:          utils.DefaultRequestTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, h, cfg.Auth)

	return app
}
