package handlers

import (
	"context"

	"mcbarchive/internal/app"
	showsController "mcbarchive/internal/controllers/shows"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type FacetHandler struct {
	Handler
	showsController showsController.ShowsControllerInterface
}

func NewFacetHandler(app app.App, router fiber.Router) *FacetHandler {
	log := logger.New("handlers").File("facet_handler")
	return &FacetHandler{
		showsController: app.Controllers.Shows,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *FacetHandler) Register() {
	h.router.Get("/genres", h.facet("genres", h.showsController.Genres))
	h.router.Get("/decades", h.facet("decades", h.showsController.Decades))
	h.router.Get("/stations", h.facet("stations", h.showsController.Stations))
}

func (h *FacetHandler) facet(
	name string,
	load func(context.Context) ([]string, error),
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.New("handlers").TraceFromContext(c.UserContext()).File("facet_handler").Function(name)

		values, err := load(c.UserContext())
		if err != nil {
			log.Er("Failed to load facet", err, "facet", name)
			return storeUnavailable(c, err, "Failed to load "+name)
		}
		if values == nil {
			values = []string{}
		}

		return c.JSON(fiber.Map{
			name: values,
		})
	}
}
