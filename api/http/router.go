package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/greenswap/greenswap/api/http/handlers"
)

// Register wires all HTTP routes onto given Fiber app.
func Register(
	app *fiber.App,
	auth *handlers.AuthHandler,
	health *handlers.HealthHandler,
	chat *handlers.ChatHandler,
	catalog *handlers.CatalogHandler,
	authMW fiber.Handler,
	optionalAuthMW fiber.Handler,
) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", health.Health)
	v1.Get("/ready", health.Ready)

	a := v1.Group("/auth")
	a.Post("/register", auth.Register)
	a.Post("/login", auth.Login)

	// Chat: POST requires a session; DELETE checks the id before the
	// session, so it carries the optional variant and decides in-handler.
	v1.Post("/chat", authMW, chat.Stream)
	v1.Delete("/chat", optionalAuthMW, chat.Delete)
	v1.Get("/chat/tools", authMW, chat.Tools)
	v1.Get("/chats", authMW, chat.History)

	// Product catalog
	p := v1.Group("/products", authMW)
	p.Get("/", catalog.List)
	p.Get("/:id", catalog.Detail)
	p.Post("/:id/price", catalog.Price)
}
