package handlers

import (
	"mcbarchive/internal/app"
	"mcbarchive/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	api := router.Group("/api", app.Middleware.Metrics())
	HealthHandler(api, app.Config)
	NewShowHandler(*app, api).Register()
	NewVoteHandler(*app, api).Register()
	NewFacetHandler(*app, api).Register()

	return nil
}
