// handlers/points_routes.go
package handlers

import (
	"errors"
	"time"

	"tap-lab-backend/middleware"
	"tap-lab-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPointsRoutes(app *fiber.App, users *services.UserService, points *services.PointsService) {
	secured := app.Group("/api/v1", middleware.TelegramAuth())

	secured.Post("/mini_tap", func(c *fiber.Ctx) error {
		identity := identityFrom(c)

		user, err := users.ByTelegramID(c.UserContext(), identity.TelegramID)
		if err != nil {
			return serviceError(c, err)
		}

		pts, err := points.Tap(c.UserContext(), user.ID, time.Now().UTC())
		if errors.Is(err, services.ErrInsufficientEnergy) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Not enough energy"})
		}
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{
			"message": "Mini tap successful",
			"hearts":  pts.Hearts,
			"energy":  pts.Energy,
		})
	})

	secured.Get("/update_energy/:user_id", func(c *fiber.Ctx) error {
		identity := identityFrom(c)
		if !pathUserMatches(c, identity) {
			return forbidden(c)
		}

		user, err := users.ByTelegramID(c.UserContext(), identity.TelegramID)
		if err != nil {
			return serviceError(c, err)
		}

		pts, err := points.RefreshEnergy(c.UserContext(), user.ID, time.Now().UTC())
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{"energy": pts.Energy})
	})

	secured.Post("/claim_daily_points/:user_id", func(c *fiber.Ctx) error {
		identity := identityFrom(c)
		if !pathUserMatches(c, identity) {
			return forbidden(c)
		}

		user, err := users.ByTelegramID(c.UserContext(), identity.TelegramID)
		if err != nil {
			return serviceError(c, err)
		}

		pts, err := points.ClaimDaily(c.UserContext(), user.ID, time.Now().UTC())
		if errors.Is(err, services.ErrClaimTooSoon) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Claim available only once every 24 hours",
			})
		}
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{
			"message": "Daily claim successful",
			"tickets": pts.Tickets,
			"streak":  pts.ClaimStreak,
		})
	})

	secured.Get("/claim_daily_points/:user_id", func(c *fiber.Ctx) error {
		identity := identityFrom(c)
		if !pathUserMatches(c, identity) {
			return forbidden(c)
		}

		user, err := users.ByTelegramID(c.UserContext(), identity.TelegramID)
		if err != nil {
			return serviceError(c, err)
		}

		status, err := points.ClaimStatus(c.UserContext(), user.ID, time.Now().UTC())
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(status)
	})

	secured.Post("/add", func(c *fiber.Ctx) error {
		identity := identityFrom(c)

		user, err := users.ByTelegramID(c.UserContext(), identity.TelegramID)
		if err != nil {
			return serviceError(c, err)
		}

		pts, err := points.GrantPoints(c.UserContext(), user.ID, 1000)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{
			"points": fiber.Map{
				"points":  pts.Points,
				"tickets": pts.Tickets,
			},
		})
	})
}
