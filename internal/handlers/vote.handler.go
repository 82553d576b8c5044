package handlers

import (
	"errors"
	"strings"

	"mcbarchive/internal/app"
	votesController "mcbarchive/internal/controllers/votes"
	"mcbarchive/internal/handlers/middleware"
	"mcbarchive/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type VoteHandler struct {
	Handler
	votesController votesController.VotesControllerInterface
}

func NewVoteHandler(app app.App, router fiber.Router) *VoteHandler {
	log := logger.New("handlers").File("vote_handler")
	return &VoteHandler{
		votesController: app.Controllers.Votes,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *VoteHandler) Register() {
	votes := h.router.Group("/shows/:id/votes")

	votes.Get("", h.getUpvotes)
	votes.Post("", h.middleware.UpvoteRateLimit(), h.upvote)
}

func (h *VoteHandler) getUpvotes(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("vote_handler").Function("getUpvotes")

	showID := strings.TrimSpace(c.Params("id"))
	response, err := h.votesController.GetUpvotes(c.UserContext(), showID)
	if err != nil {
		log.Er("Failed to get upvotes", err, "showID", showID)
		return storeUnavailable(c, err, "Failed to load upvotes")
	}

	return c.JSON(response)
}

func (h *VoteHandler) upvote(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("vote_handler").Function("upvote")

	showID := strings.TrimSpace(c.Params("id"))
	deviceID := strings.TrimSpace(c.Get(middleware.DeviceIDHeader))
	if deviceID == "" {
		log.Warn("Upvote without device id", "showID", showID)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing_device_id",
		})
	}

	result, err := h.votesController.Upvote(c.UserContext(), showID, deviceID)
	switch {
	case errors.Is(err, services.ErrMissingDeviceID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing_device_id",
		})
	case errors.Is(err, services.ErrShowNotFound):
		return notFound(c)
	case err != nil:
		log.Er("Failed to record upvote", err, "showID", showID)
		return storeUnavailable(c, err, "Failed to record upvote")
	}

	return c.JSON(result)
}
