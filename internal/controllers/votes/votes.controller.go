package votesController

import (
	"context"

	"mcbarchive/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type VotesController struct {
	vote *services.VoteService
	log  logger.Logger
}

type UpvotesResponse struct {
	ShowID  string `json:"showId"`
	Upvotes int64  `json:"upvotes"`
}

type VotesControllerInterface interface {
	GetUpvotes(ctx context.Context, showID string) (UpvotesResponse, error)
	Upvote(ctx context.Context, showID, deviceID string) (services.VoteResult, error)
}

func New(services services.Service) VotesControllerInterface {
	return &VotesController{
		vote: services.Vote,
		log:  logger.New("votesController"),
	}
}

func (c *VotesController) GetUpvotes(ctx context.Context, showID string) (UpvotesResponse, error) {
	log := c.log.Function("GetUpvotes")

	upvotes, err := c.vote.GetUpvotes(ctx, showID)
	if err != nil {
		return UpvotesResponse{}, log.Err("failed to get upvotes", err, "showID", showID)
	}

	return UpvotesResponse{ShowID: showID, Upvotes: upvotes}, nil
}

func (c *VotesController) Upvote(
	ctx context.Context,
	showID, deviceID string,
) (services.VoteResult, error) {
	log := c.log.Function("Upvote")

	result, err := c.vote.UpvoteOnce(ctx, showID, deviceID)
	if err != nil {
		return services.VoteResult{}, err
	}

	log.Debug("Upvote recorded", "showID", showID, "status", result.Status)
	return result, nil
}
