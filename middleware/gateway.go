package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
)

// AdminKeyAuth guards the admin API with a static bearer key.
func AdminKeyAuth(expectedKey string, log zerolog.Logger) fiber.Handler {
	expected := []byte(expectedKey)

	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			log.Warn().Str("path", c.Path()).Str("ip", c.IP()).Msg("🚫 [ADMIN_AUTH] missing admin key")
			return apperr.Unauthorized("admin key missing")
		}
		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			log.Warn().Str("path", c.Path()).Str("ip", c.IP()).Msg("❌ [ADMIN_AUTH] invalid admin key")
			return apperr.New(apperr.CodeForbidden, "invalid admin key")
		}
		return c.Next()
	}
}
