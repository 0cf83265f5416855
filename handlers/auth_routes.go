// handlers/auth_routes.go
package handlers

import (
	"errors"

	"tap-lab-backend/middleware"
	"tap-lab-backend/services"
	"tap-lab-backend/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, users *services.UserService, referrals *services.ReferralService) {
	// 🔓 Public: health/welcome only — everything else requires signed init data
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Welcome to Tap Lab API"})
	})

	secured := app.Group("/api/v1", middleware.TelegramAuth())

	secured.Post("/auth/login", func(c *fiber.Ctx) error {
		identity := identityFrom(c)

		user, points, err := users.Resolve(c.UserContext(), identity)
		if err != nil {
			return serviceError(c, err)
		}

		// A ref_<id> launch payload registers the referral as part of the
		// login; failures are logged, never surfaced to the new user.
		if identity.StartParam != "" {
			referrals.RegisterFromStartParam(c.UserContext(), user, identity.StartParam)
		}

		return c.JSON(fiber.Map{
			"user": identity,
			"points": fiber.Map{
				"points":  points.Points,
				"tickets": points.Tickets,
				"hearts":  points.Hearts,
				"energy":  points.Energy,
			},
		})
	})

	secured.Post("/wallet/connect", func(c *fiber.Ctx) error {
		identity := identityFrom(c)

		var body struct {
			Wallet string `json:"wallet"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if body.Wallet == "" {
			body.Wallet = "mock_wallet"
		}

		user, err := users.ByTelegramID(c.UserContext(), identity.TelegramID)
		if err != nil {
			return serviceError(c, err)
		}

		balance, err := users.ConnectWallet(c.UserContext(), user.ID, body.Wallet)
		if errors.Is(err, utils.ErrUpstream) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "failed to fetch TON balance",
			})
		}
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{
			"wallet_address": body.Wallet,
			"ton_balance":    balance,
		})
	})
}
