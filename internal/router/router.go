package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/quizhub-api/internal/config"
	"github.com/noah-isme/quizhub-api/internal/handler"
	"github.com/noah-isme/quizhub-api/internal/middleware"
	"github.com/noah-isme/quizhub-api/internal/models"
	"github.com/noah-isme/quizhub-api/internal/observability"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	QuestionHandler  *handler.QuestionHandler
	MockTestHandler  *handler.MockTestHandler
	CommunityHandler *handler.CommunityHandler
	Health           handler.HealthDependencies
	JWTMiddleware    fiber.Handler
	AuthLimiter      fiber.Handler
}

// Register wires the HTTP routes into the fiber application. It must run last:
// the trailing handler answers every unmatched route.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("SERVER IS RUNNING....")
	})
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Health))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusUnauthorized, "Access denied. No token provided.")
		}
	}
	authLimiter := deps.AuthLimiter
	if authLimiter == nil {
		authLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), authLimiter)
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/user", jwtMiddleware), adminOnly)
	}

	questions := api.Group("/questions", jwtMiddleware)
	if deps.MockTestHandler != nil {
		deps.MockTestHandler.Register(questions.Group("/mock-test"))
	}
	if deps.QuestionHandler != nil {
		deps.QuestionHandler.Register(questions, adminOnly)
	}

	if deps.CommunityHandler != nil {
		deps.CommunityHandler.Register(api.Group("/community", jwtMiddleware), adminOnly)
	}

	app.Use(utils.NotFound)
}
