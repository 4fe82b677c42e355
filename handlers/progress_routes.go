package handlers

import (
	"github.com/gofiber/fiber/v2"

	"scavenger-hunt/middleware"
	"scavenger-hunt/services"
)

// SetupProgressRoutes registers the dashboard progress API. The SSE stream
// authenticates with a query token since EventSource cannot send headers.
func SetupProgressRoutes(api fiber.Router, progressService *services.ProgressService, requireUser, requireStreamUser fiber.Handler) {
	progress := api.Group("/progress")

	progress.Get("/stream", requireStreamUser, progressService.StreamProgressSSE)

	secured := progress.Group("", requireUser)

	secured.Get("/", func(c *fiber.Ctx) error {
		p, err := progressService.Ensure(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"progress": p})
	})

	secured.Post("/games/:game/complete", func(c *fiber.Ctx) error {
		var req qrRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		update, err := progressService.CompleteGame(c.UserContext(), middleware.UserID(c), c.Params("game"), req.QRCode)
		if err != nil {
			return err
		}
		return c.JSON(update)
	})

	secured.Post("/checkpoints/:id/complete", func(c *fiber.Ctx) error {
		var req checkpointCompleteRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		update, err := progressService.CompleteCheckpoint(c.UserContext(), middleware.UserID(c), c.Params("id"), req.QRCode)
		if err != nil {
			return err
		}
		return c.JSON(update)
	})

	secured.Post("/hints/:id", func(c *fiber.Ctx) error {
		res, err := progressService.UseHint(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(res)
	})

	secured.Put("/page", func(c *fiber.Ctx) error {
		var req pageRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		p, err := progressService.SetPage(c.UserContext(), middleware.UserID(c), req.Page)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"current_page": p.CurrentPage})
	})
}
