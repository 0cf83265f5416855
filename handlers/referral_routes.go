// handlers/referral_routes.go
package handlers

import (
	"strconv"

	"tap-lab-backend/middleware"
	"tap-lab-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupReferralRoutes(app *fiber.App, users *services.UserService, referrals *services.ReferralService) {
	secured := app.Group("/api/v1", middleware.TelegramAuth())

	secured.Get("/referrals", func(c *fiber.Ctx) error {
		identity := identityFrom(c)
		if !queryUserMatches(c, identity) {
			return forbidden(c)
		}

		user, err := users.ByTelegramID(c.UserContext(), identity.TelegramID)
		if err != nil {
			return serviceError(c, err)
		}

		referred, err := referrals.List(c.UserContext(), user.ID)
		if err != nil {
			return serviceError(c, err)
		}
		if referred == nil {
			referred = []services.ReferredUser{}
		}

		return c.JSON(fiber.Map{"referrals": referred})
	})

	secured.Get("/referrals/invite-link", func(c *fiber.Ctx) error {
		identity := identityFrom(c)
		if !queryUserMatches(c, identity) {
			return forbidden(c)
		}

		return c.JSON(fiber.Map{"url": referrals.InviteLink(identity.TelegramID)})
	})

	secured.Post("/referrals/register", func(c *fiber.Ctx) error {
		identity := identityFrom(c)

		var body struct {
			ReferrerID string `json:"referrer_id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		referrerID, err := strconv.ParseInt(body.ReferrerID, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid referrer_id"})
		}

		user, err := users.ByTelegramID(c.UserContext(), identity.TelegramID)
		if err != nil {
			return serviceError(c, err)
		}

		outcome, err := referrals.Register(c.UserContext(), user, referrerID)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{"message": outcome.Message()})
	})
}

// queryUserMatches is the ?user_id= counterpart of pathUserMatches.
func queryUserMatches(c *fiber.Ctx, identity middleware.Identity) bool {
	id, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	return err == nil && id == identity.TelegramID
}
