package services

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"mcbarchive/internal/constants"
	"mcbarchive/internal/database"
	"mcbarchive/internal/metrics"
	"mcbarchive/internal/models"
	"mcbarchive/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// RawListShowsParams is the list query exactly as the client sent it.
type RawListShowsParams struct {
	Query   string `query:"q"`
	Genre   string `query:"genre"`
	Decade  string `query:"decade"`
	Station string `query:"station"`
	Sort    string `query:"sort"`
	Dir     string `query:"dir"`
	Page    string `query:"page"`
	Limit   string `query:"limit"`
}

// ListShowsParams is a parsed list query. Sort and Direction are empty when
// the client did not ask for one.
type ListShowsParams struct {
	Filter    repositories.ShowFilter
	Sort      repositories.SortField
	Direction repositories.SortDirection
	Page      int
	Limit     int
	All       bool
}

type ShowPage struct {
	Shows []models.ShowSummary `json:"shows"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	All   bool                 `json:"all,omitempty"`
}

// ParseListShowsParams never fails. Unknown sort or direction tokens are
// dropped, bad page or limit values fall back to their defaults and oversized
// ones are capped.
func ParseListShowsParams(raw RawListShowsParams) ListShowsParams {
	params := ListShowsParams{
		Filter: repositories.ShowFilter{
			Query:   strings.TrimSpace(raw.Query),
			Genre:   strings.ToLower(strings.TrimSpace(raw.Genre)),
			Decade:  strings.ToLower(strings.TrimSpace(raw.Decade)),
			Station: strings.TrimSpace(raw.Station),
		},
		Page:  1,
		Limit: constants.DefaultShowLimit,
	}

	switch field := repositories.SortField(strings.ToLower(strings.TrimSpace(raw.Sort))); field {
	case repositories.SortStation, repositories.SortTitle, repositories.SortOriginalBroadcast:
		params.Sort = field
	}

	switch dir := repositories.SortDirection(strings.ToLower(strings.TrimSpace(raw.Dir))); dir {
	case repositories.SortAsc, repositories.SortDesc:
		params.Direction = dir
	}

	if page, err := strconv.Atoi(strings.TrimSpace(raw.Page)); err == nil && page > 0 {
		params.Page = min(page, constants.MaxShowPage)
	}

	limit := strings.ToLower(strings.TrimSpace(raw.Limit))
	if limit == constants.ShowLimitAll {
		params.All = true
		params.Limit = 0
		params.Page = 1
	} else if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		params.Limit = min(n, constants.MaxShowLimit)
	}

	return params
}

// ResolveSort picks the single ordering mode for a list query. An explicit
// sort field always wins; a free-text query without one orders by relevance.
func ResolveSort(params ListShowsParams) repositories.ShowOrder {
	switch params.Sort {
	case repositories.SortStation, repositories.SortTitle:
		dir := params.Direction
		if dir == "" {
			dir = repositories.SortAsc
		}
		return repositories.ShowOrder{Field: params.Sort, Direction: dir}
	case "":
		if params.Filter.Query != "" {
			return repositories.ShowOrder{
				Field:     repositories.SortRelevance,
				Direction: repositories.SortDesc,
			}
		}
	}

	dir := params.Direction
	if dir == "" {
		dir = repositories.SortDesc
	}
	return repositories.ShowOrder{Field: repositories.SortOriginalBroadcast, Direction: dir}
}

type ShowQueryService struct {
	store database.Store
	shows repositories.ShowRepository
	log   logger.Logger
}

func NewShowQueryService(store database.Store, repos repositories.Repository) *ShowQueryService {
	return &ShowQueryService{
		store: store,
		shows: repos.Show,
		log:   logger.New("ShowQueryService"),
	}
}

func (s *ShowQueryService) ListShows(ctx context.Context, params ListShowsParams) (ShowPage, error) {
	defer metrics.ObserveShowQuery("list", time.Now())

	db, err := s.store.SQLWithContext(ctx)
	if err != nil {
		return ShowPage{}, err
	}

	query := repositories.ShowListQuery{
		Filter: params.Filter,
		Order:  ResolveSort(params),
	}
	if !params.All {
		query.Limit = params.Limit
		query.Offset = (params.Page - 1) * params.Limit
	}

	var (
		shows []*models.Show
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.shows.Count(gctx, db, params.Filter)
		return err
	})
	g.Go(func() error {
		var err error
		shows, err = s.shows.List(gctx, db, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return ShowPage{}, err
	}

	return ShowPage{
		Shows: models.Summaries(shows),
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
		All:   params.All,
	}, nil
}

// GetShow returns nil when no show has the id.
func (s *ShowQueryService) GetShow(ctx context.Context, id string) (*models.Show, error) {
	defer metrics.ObserveShowQuery("get", time.Now())

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	db, err := s.store.SQLWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return s.shows.GetByID(ctx, db, id)
}

// GetShowsByIDs omits unknown ids and orders by broadcast date, newest first,
// whatever the input order.
func (s *ShowQueryService) GetShowsByIDs(ctx context.Context, ids []string) ([]models.ShowSummary, error) {
	defer metrics.ObserveShowQuery("by_ids", time.Now())

	ids = repositories.NormalizeIDs(ids)
	if len(ids) == 0 {
		return []models.ShowSummary{}, nil
	}

	db, err := s.store.SQLWithContext(ctx)
	if err != nil {
		return nil, err
	}

	shows, err := s.shows.GetByIDs(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	return models.Summaries(shows), nil
}

func (s *ShowQueryService) RandomShow(ctx context.Context) (*models.Show, error) {
	defer metrics.ObserveShowQuery("random", time.Now())

	db, err := s.store.SQLWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return s.shows.Random(ctx, db)
}

func (s *ShowQueryService) Genres(ctx context.Context) ([]string, error) {
	return s.facet(ctx, constants.FacetGenresKey, s.shows.DistinctGenres, SortFacetValues)
}

func (s *ShowQueryService) Decades(ctx context.Context) ([]string, error) {
	return s.facet(ctx, constants.FacetDecadesKey, s.shows.DistinctDecades, SortDecades)
}

func (s *ShowQueryService) Stations(ctx context.Context) ([]string, error) {
	return s.facet(ctx, constants.FacetStationsKey, s.shows.DistinctStations, SortFacetValues)
}

// InvalidateFacets drops every cached facet list.
func (s *ShowQueryService) InvalidateFacets(ctx context.Context) error {
	log := s.log.Function("InvalidateFacets")

	err := database.NewCacheBuilder(s.store.Cache(), constants.FacetGenresKey).
		WithHash(constants.FacetCachePrefix).
		WithKeys(
			facetCacheKey(constants.FacetDecadesKey),
			facetCacheKey(constants.FacetStationsKey),
		).
		WithContext(ctx).
		Delete()
	if err != nil {
		return log.Err("failed to invalidate facet cache", err)
	}

	return nil
}

func (s *ShowQueryService) facet(
	ctx context.Context,
	name string,
	load func(context.Context, *gorm.DB) ([]string, error),
	sortValues func([]string) []string,
) ([]string, error) {
	log := s.log.Function("facet")
	defer metrics.ObserveShowQuery("facet_"+name, time.Now())

	var cached []string
	found, err := database.NewCacheBuilder(s.store.Cache(), name).
		WithHash(constants.FacetCachePrefix).
		WithContext(ctx).
		Get(&cached)
	if err != nil {
		log.Warn("failed to read facet cache", "facet", name, "error", err)
	}
	if found {
		metrics.RecordFacetCache(name, true)
		return cached, nil
	}
	metrics.RecordFacetCache(name, false)

	db, err := s.store.SQLWithContext(ctx)
	if err != nil {
		return nil, err
	}

	values, err := load(ctx, db)
	if err != nil {
		return nil, err
	}
	values = sortValues(values)

	if len(values) > 0 {
		if err := database.NewCacheBuilder(s.store.Cache(), name).
			WithHash(constants.FacetCachePrefix).
			WithStruct(values).
			WithTTL(constants.FacetCacheExpiry).
			WithContext(ctx).
			Set(); err != nil {
			log.Warn("failed to write facet cache", "facet", name, "error", err)
		}
	}

	return values, nil
}

func facetCacheKey(name string) string {
	return constants.FacetCachePrefix + ":" + name
}

// SortFacetValues orders values alphabetically with locale-aware comparison.
func SortFacetValues(values []string) []string {
	sorted := append([]string(nil), values...)
	collate.New(language.Und).SortStrings(sorted)
	if sorted == nil {
		sorted = []string{}
	}
	return sorted
}

var decadePattern = regexp.MustCompile(`^\s*(\d{4})s\s*$`)

func decadeYear(value string) (int, bool) {
	match := decadePattern.FindStringSubmatch(value)
	if match == nil {
		return 0, false
	}
	year, err := strconv.Atoi(match[1])
	return year, err == nil
}

// SortDecades orders "<year>s" labels by year. Labels of any other shape sort
// after them, alphabetically.
func SortDecades(values []string) []string {
	sorted := SortFacetValues(values)
	collator := collate.New(language.Und)

	slices.SortStableFunc(sorted, func(a, b string) int {
		ay, aok := decadeYear(a)
		by, bok := decadeYear(b)
		switch {
		case aok && bok:
			if ay != by {
				return ay - by
			}
			return collator.CompareString(a, b)
		case aok:
			return -1
		case bok:
			return 1
		default:
			return collator.CompareString(a, b)
		}
	})

	return sorted
}
