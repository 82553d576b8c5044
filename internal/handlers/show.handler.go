package handlers

import (
	"strings"

	"mcbarchive/internal/app"
	showsController "mcbarchive/internal/controllers/shows"
	"mcbarchive/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type ShowHandler struct {
	Handler
	showsController showsController.ShowsControllerInterface
}

func NewShowHandler(app app.App, router fiber.Router) *ShowHandler {
	log := logger.New("handlers").File("show_handler")
	return &ShowHandler{
		showsController: app.Controllers.Shows,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ShowHandler) Register() {
	shows := h.router.Group("/shows")

	shows.Get("", h.listShows)
	shows.Get("/random", h.randomShow)
	shows.Get("/by-ids", h.getShowsByIDs)
	shows.Get("/:id", h.getShow)
}

func (h *ShowHandler) listShows(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("show_handler").Function("listShows")

	var raw services.RawListShowsParams
	if err := c.QueryParser(&raw); err != nil {
		log.Warn("Invalid query parameters", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid_query",
		})
	}

	page, err := h.showsController.ListShows(c.UserContext(), raw)
	if err != nil {
		log.Er("Failed to list shows", err)
		return storeUnavailable(c, err, "Failed to list shows")
	}

	return c.JSON(page)
}

func (h *ShowHandler) randomShow(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("show_handler").Function("randomShow")

	show, err := h.showsController.RandomShow(c.UserContext())
	if err != nil {
		log.Er("Failed to pick random show", err)
		return storeUnavailable(c, err, "Failed to pick a random show")
	}

	return c.JSON(fiber.Map{
		"show": show,
	})
}

func (h *ShowHandler) getShowsByIDs(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("show_handler").Function("getShowsByIDs")

	var ids []string
	for _, value := range c.Context().QueryArgs().PeekMulti("id") {
		ids = append(ids, strings.Split(string(value), ",")...)
	}

	shows, err := h.showsController.GetShowsByIDs(c.UserContext(), ids)
	if err != nil {
		log.Er("Failed to get shows by ids", err, "count", len(ids))
		return storeUnavailable(c, err, "Failed to load shows")
	}

	return c.JSON(fiber.Map{
		"shows": shows,
	})
}

func (h *ShowHandler) getShow(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("show_handler").Function("getShow")

	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return notFound(c)
	}

	show, err := h.showsController.GetShow(c.UserContext(), id)
	if err != nil {
		log.Er("Failed to get show", err, "id", id)
		return storeUnavailable(c, err, "Failed to load show")
	}
	if show == nil {
		return notFound(c)
	}

	return c.JSON(fiber.Map{
		"show": show,
	})
}
