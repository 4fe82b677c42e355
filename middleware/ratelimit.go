package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"scavenger-hunt/apperr"
)

// RateLimit applies a fixed-window limit per client IP.
func RateLimit(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperr.New(apperr.CodeRateLimited, "too many requests, please try again later").
				With("retry_after", int(window/time.Second))
		},
	})
}
