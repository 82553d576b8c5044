package handlers

import (
	"errors"

	"mcbarchive/config"

	"github.com/gofiber/fiber/v2"
)

// storeUnavailable answers 503 for anything that kept the store from serving
// the request. Configuration errors carry their fix in the message.
func storeUnavailable(c *fiber.Ctx, err error, message string) error {
	var configErr *config.ConfigurationError
	if errors.As(err, &configErr) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":   "store_not_configured",
			"message": configErr.Error(),
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error":   "store_unavailable",
		"message": message,
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "not_found",
	})
}
