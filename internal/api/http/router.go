package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-intake/internal/api/http/handlers"
	"github.com/spec-kit/legal-intake/internal/auth"
	"github.com/spec-kit/legal-intake/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Auth              *handlers.AuthHandler
	Tickets           *handlers.TicketsHandler
	Messages          *handlers.MessagesHandler
	AuthMiddleware    *auth.AuthMiddleware
	SubmissionLimiter fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/create-admin", cfg.Auth.CreateAdmin)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Auth.Me)

	submit := []fiber.Handler{}
	if cfg.SubmissionLimiter != nil {
		submit = append(submit, cfg.SubmissionLimiter)
	}
	app.Post("/tickets", append(submit, cfg.Tickets.Submit)...)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/tickets", cfg.Tickets.List)
	admin.Get("/tickets/:id", cfg.Tickets.Get)
	admin.Put("/tickets/:id/status", cfg.Tickets.UpdateStatus)
	admin.Put("/tickets/:id/urgency", cfg.Tickets.UpdateUrgency)
	admin.Get("/tickets/:id/history", cfg.Tickets.History)
	admin.Delete("/tickets/:id", cfg.Tickets.Delete)

	chat := app.Group("/chat", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	chat.Post("/messages", cfg.Messages.Send)
	chat.Get("/messages", cfg.Messages.List)
	chat.Put("/messages/:id/read", cfg.Messages.MarkRead)
	chat.Get("/conversations", auth.RequireRole(domain.RoleAdmin), cfg.Messages.Conversations)
}
