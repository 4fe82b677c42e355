package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"scavenger-hunt/middleware"
	"scavenger-hunt/services"
)

func SetupAuthRoutes(api fiber.Router, authService *services.AuthService, requireUser fiber.Handler, limit fiber.Handler, cookieSecure bool) {
	group := api.Group("/auth", limit)

	requestOTP := func(c *fiber.Ctx) error {
		var req phoneRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		sent, err := authService.RequestOTP(c.UserContext(), req.Phone)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"message":     "verification code sent",
			"phone":       sent.Phone,
			"expires_at":  sent.ExpiresAt,
			"retry_after": sent.RetryAfter,
		})
	}
	group.Post("/register", requestOTP)
	group.Post("/resend-otp", requestOTP)

	group.Post("/verify-otp", func(c *fiber.Ctx) error {
		var req verifyRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		session, err := authService.VerifyOTP(c.UserContext(), req.Phone, req.OTP)
		if err != nil {
			return err
		}
		c.Cookie(&fiber.Cookie{
			Name:     middleware.AuthCookieName,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			HTTPOnly: true,
			Secure:   cookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(session)
	})

	group.Get("/me", requireUser, func(c *fiber.Ctx) error {
		user, err := authService.Me(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user": user})
	})

	group.Post("/logout", func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     middleware.AuthCookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   cookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(fiber.Map{"message": "logged out"})
	})
}
