package handlers

import (
	"github.com/gofiber/fiber/v2"

	"scavenger-hunt/services"
	"scavenger-hunt/store"
	"scavenger-hunt/utils"
)

// SetupAdminRoutes registers the claim panel API behind requireAdmin.
func SetupAdminRoutes(api fiber.Router, adminService *services.AdminService, checkpointService *services.CheckpointService, requireAdmin fiber.Handler) {
	admin := api.Group("/admin", requireAdmin)

	admin.Get("/users", func(c *fiber.Ctx) error {
		page, err := adminService.ListUsers(c.UserContext(),
			c.QueryInt("page", 1),
			c.QueryInt("limit", store.DefaultPageLimit),
			c.Query("search"),
		)
		if err != nil {
			return err
		}
		return c.JSON(page)
	})

	admin.Get("/users/:id", func(c *fiber.Ctx) error {
		detail, err := adminService.UserDetail(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(detail)
	})

	admin.Patch("/users/:id/toggle-claim", func(c *fiber.Ctx) error {
		user, err := adminService.ToggleClaim(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user": user})
	})

	admin.Post("/users/:id/claim", func(c *fiber.Ctx) error {
		res, err := adminService.ClaimByUserID(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(res)
	})

	admin.Post("/claims", func(c *fiber.Ctx) error {
		var req claimRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		res, err := adminService.ClaimByVoucher(c.UserContext(), req.VoucherCode)
		if err != nil {
			return err
		}
		return c.JSON(res)
	})

	admin.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := adminService.Stats(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(stats)
	})

	admin.Get("/checkpoints", func(c *fiber.Ctx) error {
		cps, err := checkpointService.ListDetailed(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"checkpoints": cps, "total": len(cps)})
	})

	admin.Get("/checkpoints/:id/qr.png", func(c *fiber.Ctx) error {
		png, err := checkpointService.QRImage(c.UserContext(), c.Params("id"), c.QueryInt("size", utils.DefaultQRSize))
		if err != nil {
			return err
		}
		return sendPNG(c, png)
	})

	admin.Post("/reports/claims", func(c *fiber.Ctx) error {
		report, err := adminService.ExportClaims(c.UserContext())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(report)
	})
}
