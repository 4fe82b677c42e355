package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
	"scavenger-hunt/auth"
)

const (
	AuthCookieName = "jwt_token"

	LocalUserID = "user_id"
	LocalPhone  = "phone"
)

// Authenticator validates a player token.
type Authenticator interface {
	Authenticate(token string) (*auth.Claims, error)
}

// JWTAuth accepts "Authorization: Bearer <jwt>" or the jwt_token cookie and
// stores the caller's id and phone in Locals.
func JWTAuth(authn Authenticator, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(AuthCookieName)
		}
		if token == "" {
			return apperr.Unauthorized("authentication required")
		}

		claims, err := authn.Authenticate(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("[AUTH] rejected token")
			return err
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalPhone, claims.Phone)
		return c.Next()
	}
}

// UserID returns the authenticated caller set by JWTAuth or SSEAuth.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

func Phone(c *fiber.Ctx) string {
	phone, _ := c.Locals(LocalPhone).(string)
	return phone
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
