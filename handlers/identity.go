package handlers

import (
	"errors"
	"strconv"

	"tap-lab-backend/middleware"
	"tap-lab-backend/services"

	"github.com/gofiber/fiber/v2"
)

func identityFrom(c *fiber.Ctx) middleware.Identity {
	identity, _ := c.Locals("identity").(middleware.Identity)
	return identity
}

// pathUserMatches reports whether the :user_id path param is the
// authenticated user. Path params carry external telegram ids.
func pathUserMatches(c *fiber.Ctx, identity middleware.Identity) bool {
	id, err := strconv.ParseInt(c.Params("user_id"), 10, 64)
	return err == nil && id == identity.TelegramID
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "unauthorized"})
}

func serviceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
		"cause": err.Error(),
	})
}
