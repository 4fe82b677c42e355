package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
)

// SSEAuth authenticates EventSource requests, which cannot set headers, from
// the `token` query parameter. The cookie is accepted as a fallback.
//
// Usage:
//
//	app.Get("/api/progress/stream", middleware.SSEAuth(authService, log), progressService.StreamProgressSSE)
func SSEAuth(authn Authenticator, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			token = c.Cookies(AuthCookieName)
		}
		if token == "" {
			log.Debug().Str("ip", c.IP()).Msg("[SSEAuth] missing token query parameter")
			return apperr.Unauthorized("missing token")
		}

		claims, err := authn.Authenticate(token)
		if err != nil {
			log.Debug().Err(err).Msg("[SSEAuth] token rejected")
			return err
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalPhone, claims.Phone)
		return c.Next()
	}
}
