package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/sweet-shop/internal/api/http/handlers"
	"github.com/spec-kit/sweet-shop/internal/auth"
	"github.com/spec-kit/sweet-shop/internal/domain"
	"github.com/spec-kit/sweet-shop/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Users   *handlers.UsersHandler
	Items   *handlers.ItemsHandler
	Gate    *auth.Gate
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	sweets := api.Group("/sweets", cfg.Gate.Handle)
	adminOnly := auth.RequireRole(domain.RoleAdmin)

	sweets.Get("/", cfg.Items.List)
	// registered before /:id so "search" is not taken as an id
	sweets.Get("/search", cfg.Items.Search)
	sweets.Get("/:id", cfg.Items.Get)
	sweets.Post("/", adminOnly, cfg.Items.Create)
	sweets.Put("/:id", adminOnly, cfg.Items.Update)
	sweets.Delete("/:id", adminOnly, cfg.Items.Delete)
	sweets.Post("/:id/purchase", cfg.Items.Purchase)
	sweets.Post("/:id/restock", adminOnly, cfg.Items.Restock)
}
