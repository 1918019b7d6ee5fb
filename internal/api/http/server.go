package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/legal-intake/internal/observability"
)

// ServerConfig describes the Fiber application.
type ServerConfig struct {
	AppName    string
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Middleware MiddlewareConfig
}

// NewServer builds a Fiber app with the global middleware chain and every
// route registered.
func NewServer(cfg ServerConfig, routes RouteConfig) *fiber.App {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, cfg.Metrics, cfg.Middleware)
	RegisterRoutes(app, routes)
	return app
}
