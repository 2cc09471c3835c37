package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/order-service/internal/api/http/handlers"
	"github.com/spec-kit/order-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Products       *handlers.ProductsHandler
	Orders         *handlers.OrdersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	users := api.Group("/users")
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.AuthMiddleware.Handle, cfg.Users.Update)
	users.Delete("/:id", cfg.AuthMiddleware.Handle, cfg.Users.Delete)

	products := api.Group("/products")
	products.Get("/", cfg.Products.List)
	products.Get("/search", cfg.Products.Search)
	products.Get("/available", cfg.Products.Available)
	products.Get("/price-range", cfg.Products.PriceRange)
	products.Get("/:id", cfg.Products.Get)
	products.Post("/", cfg.Products.Create)
	products.Put("/:id", cfg.Products.Update)
	products.Put("/:id/stock", cfg.Products.AdjustStock)
	products.Delete("/:id", cfg.Products.Delete)

	orders := api.Group("/orders")
	orders.Post("/", cfg.Orders.Create)
	orders.Get("/", cfg.Orders.List)
	orders.Get("/user/:userId", cfg.Orders.ListByUser)
	orders.Get("/status/:status", cfg.Orders.ListByStatus)
	orders.Get("/:id", cfg.Orders.Get)
	orders.Get("/:id/items", cfg.Orders.Items)
	orders.Put("/:id/status", cfg.Orders.UpdateStatus)
	orders.Put("/:id/cancel", cfg.Orders.Cancel)
}
