package handlers

import (
	"github.com/gofiber/fiber/v2"

	"scavenger-hunt/middleware"
	"scavenger-hunt/services"
	"scavenger-hunt/utils"
)

func SetupUserRoutes(api fiber.Router, userService *services.UserService, requireUser fiber.Handler) {
	user := api.Group("/user", requireUser)

	user.Get("/profile", func(c *fiber.Ctx) error {
		profile, err := userService.Profile(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(profile)
	})

	user.Get("/voucher", func(c *fiber.Ctx) error {
		v, err := userService.Voucher(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(v)
	})

	user.Get("/voucher/qr.png", func(c *fiber.Ctx) error {
		png, err := userService.VoucherQR(c.UserContext(), middleware.UserID(c), c.QueryInt("size", utils.DefaultQRSize))
		if err != nil {
			return err
		}
		return sendPNG(c, png)
	})
}

func sendPNG(c *fiber.Ctx, png []byte) error {
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Send(png)
}
