package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"

	"scavenger-hunt/config"
	"scavenger-hunt/middleware"
	"scavenger-hunt/services"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Auth        *services.AuthService
	Game        *services.GameService
	Progress    *services.ProgressService
	Checkpoints *services.CheckpointService
	Users       *services.UserService
	Admin       *services.AdminService
	Log         zerolog.Logger

	AdminAPIKey    string
	CookieSecure   bool
	AllowedOrigins string
	RateLimit      config.RateLimitConfig
}

// NewApp builds the Fiber app with the shared error handler, CORS and every
// /api route group.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "scavenger-hunt",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: ErrorHandler(d.Log),
	})

	if d.AllowedOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, Cache-Control",
			ExposeHeaders:    "Content-Length, Content-Type, Retry-After",
			AllowCredentials: true,
			MaxAge:           86400, // 24 hours
		}))
	}

	api := app.Group("/api", middleware.RequestLogger(d.Log))
	if d.RateLimit.Max > 0 {
		api.Use(middleware.RateLimit(d.RateLimit.Max, d.RateLimit.Window))
	}

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authLimit := func(c *fiber.Ctx) error { return c.Next() }
	if d.RateLimit.AuthMax > 0 {
		authLimit = middleware.RateLimit(d.RateLimit.AuthMax, d.RateLimit.Window)
	}

	requireUser := middleware.JWTAuth(d.Auth, d.Log)
	requireStreamUser := middleware.SSEAuth(d.Auth, d.Log)
	requireAdmin := middleware.AdminKeyAuth(d.AdminAPIKey, d.Log)

	SetupAuthRoutes(api, d.Auth, requireUser, authLimit, d.CookieSecure)
	SetupGameRoutes(api, d.Game, d.Checkpoints, requireUser)
	SetupProgressRoutes(api, d.Progress, requireUser, requireStreamUser)
	SetupUserRoutes(api, d.Users, requireUser)
	SetupAdminRoutes(api, d.Admin, d.Checkpoints, requireAdmin)

	// Unmatched /api paths must not fall through to the client bundle.
	api.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "route not found")
	})

	return app
}
