// handlers/task_routes.go
package handlers

import (
	"errors"
	"time"

	"tap-lab-backend/middleware"
	"tap-lab-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(app *fiber.App, users *services.UserService, tasks *services.TaskService) {
	secured := app.Group("/api/v1", middleware.TelegramAuth())

	secured.Get("/task_status/:user_id/:task_id", func(c *fiber.Ctx) error {
		identity := identityFrom(c)
		if !pathUserMatches(c, identity) {
			return forbidden(c)
		}

		user, err := users.ByTelegramID(c.UserContext(), identity.TelegramID)
		if err != nil {
			return serviceError(c, err)
		}

		status, err := tasks.Status(c.UserContext(), user.ID, c.Params("task_id"))
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(status)
	})

	secured.Post("/complete_task/:user_id/:task_id", func(c *fiber.Ctx) error {
		identity := identityFrom(c)
		if !pathUserMatches(c, identity) {
			return forbidden(c)
		}

		user, err := users.ByTelegramID(c.UserContext(), identity.TelegramID)
		if err != nil {
			return serviceError(c, err)
		}

		pts, err := tasks.Complete(c.UserContext(), user.ID, c.Params("task_id"), time.Now().UTC())
		if errors.Is(err, services.ErrTaskAlreadyCompleted) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Task already completed"})
		}
		if errors.Is(err, services.ErrTaskUnavailable) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Task is not available"})
		}
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{
			"message": "Task completed successfully",
			"points":  pts.Points,
		})
	})
}
