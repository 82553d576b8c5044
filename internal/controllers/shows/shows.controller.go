package showsController

import (
	"context"

	. "mcbarchive/internal/models"
	"mcbarchive/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type ShowsController struct {
	showQuery *services.ShowQueryService
	log       logger.Logger
}

type ShowsControllerInterface interface {
	ListShows(ctx context.Context, raw services.RawListShowsParams) (services.ShowPage, error)
	GetShow(ctx context.Context, id string) (*Show, error)
	GetShowsByIDs(ctx context.Context, ids []string) ([]ShowSummary, error)
	RandomShow(ctx context.Context) (*Show, error)
	Genres(ctx context.Context) ([]string, error)
	Decades(ctx context.Context) ([]string, error)
	Stations(ctx context.Context) ([]string, error)
}

func New(services services.Service) ShowsControllerInterface {
	return &ShowsController{
		showQuery: services.ShowQuery,
		log:       logger.New("showsController"),
	}
}

func (c *ShowsController) ListShows(
	ctx context.Context,
	raw services.RawListShowsParams,
) (services.ShowPage, error) {
	log := c.log.Function("ListShows")

	params := services.ParseListShowsParams(raw)
	page, err := c.showQuery.ListShows(ctx, params)
	if err != nil {
		return services.ShowPage{}, log.Err("failed to list shows", err, "filter", params.Filter)
	}

	return page, nil
}

func (c *ShowsController) GetShow(ctx context.Context, id string) (*Show, error) {
	log := c.log.Function("GetShow")

	show, err := c.showQuery.GetShow(ctx, id)
	if err != nil {
		return nil, log.Err("failed to get show", err, "id", id)
	}

	return show, nil
}

func (c *ShowsController) GetShowsByIDs(ctx context.Context, ids []string) ([]ShowSummary, error) {
	log := c.log.Function("GetShowsByIDs")

	shows, err := c.showQuery.GetShowsByIDs(ctx, ids)
	if err != nil {
		return nil, log.Err("failed to get shows by ids", err, "count", len(ids))
	}

	return shows, nil
}

func (c *ShowsController) RandomShow(ctx context.Context) (*Show, error) {
	log := c.log.Function("RandomShow")

	show, err := c.showQuery.RandomShow(ctx)
	if err != nil {
		return nil, log.Err("failed to pick random show", err)
	}

	return show, nil
}

func (c *ShowsController) Genres(ctx context.Context) ([]string, error) {
	return c.showQuery.Genres(ctx)
}

func (c *ShowsController) Decades(ctx context.Context) ([]string, error) {
	return c.showQuery.Decades(ctx)
}

func (c *ShowsController) Stations(ctx context.Context) ([]string, error) {
	return c.showQuery.Stations(ctx)
}
