package handlers

import (
	"github.com/gofiber/fiber/v2"

	"scavenger-hunt/apperr"
	"scavenger-hunt/middleware"
	"scavenger-hunt/models"
	"scavenger-hunt/services"
)

func SetupGameRoutes(api fiber.Router, gameService *services.GameService, checkpointService *services.CheckpointService, requireUser fiber.Handler) {
	game := api.Group("/game")

	// Public
	game.Get("/checkpoints", func(c *fiber.Ctx) error {
		cps, err := checkpointService.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"checkpoints": cps, "total": len(cps)})
	})

	game.Get("/leaderboard", func(c *fiber.Ctx) error {
		entries, err := gameService.Leaderboard(c.UserContext(), c.QueryInt("limit", services.DefaultLeaderboardSize))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"leaderboard": entries})
	})

	game.Get("/reward-tier", func(c *fiber.Ctx) error {
		minutes := c.QueryInt("minutes", -1)
		if minutes < 0 {
			return apperr.Validation("minutes must be a non-negative integer")
		}
		tier := models.TierForMinutes(minutes)
		return c.JSON(fiber.Map{"minutes": minutes, "tier": tier, "label": tier.Label()})
	})

	// 🔐 Player routes
	secured := game.Group("", requireUser)

	secured.Post("/start", func(c *fiber.Ctx) error {
		res, err := gameService.Start(c.UserContext(), middleware.UserID(c), middleware.Phone(c))
		if err != nil {
			return err
		}
		status := fiber.StatusOK
		if res.Created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(res)
	})

	secured.Get("/session", func(c *fiber.Ctx) error {
		gs, err := gameService.Current(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"session": gs})
	})

	secured.Post("/scan", func(c *fiber.Ctx) error {
		var in services.ScanInput
		if err := parseBody(c, &in); err != nil {
			return err
		}
		res, err := gameService.Scan(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return err
		}
		return c.JSON(res)
	})

	secured.Post("/abandon", func(c *fiber.Ctx) error {
		gs, err := gameService.Abandon(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"session": gs})
	})
}
