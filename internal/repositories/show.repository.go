package repositories

import (
	"context"
	"errors"
	"strings"

	. "mcbarchive/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const searchConfig = "english"

type SortField string

const (
	SortRelevance         SortField = "relevance"
	SortOriginalBroadcast SortField = "original_broadcast"
	SortStation           SortField = "station"
	SortTitle             SortField = "title"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) sql() string {
	if d == SortAsc {
		return "ASC"
	}
	return "DESC"
}

type ShowOrder struct {
	Field     SortField
	Direction SortDirection
}

// ShowFilter fields are ANDed; empty fields impose no constraint.
type ShowFilter struct {
	Query   string
	Genre   string
	Decade  string
	Station string
}

// ShowListQuery selects one page. Limit 0 returns every match.
type ShowListQuery struct {
	Filter ShowFilter
	Order  ShowOrder
	Offset int
	Limit  int
}

type ShowRepository interface {
	List(ctx context.Context, tx *gorm.DB, query ShowListQuery) ([]*Show, error)
	Count(ctx context.Context, tx *gorm.DB, filter ShowFilter) (int64, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*Show, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*Show, error)
	Random(ctx context.Context, tx *gorm.DB) (*Show, error)
	DistinctGenres(ctx context.Context, tx *gorm.DB) ([]string, error)
	DistinctDecades(ctx context.Context, tx *gorm.DB) ([]string, error)
	DistinctStations(ctx context.Context, tx *gorm.DB) ([]string, error)
	Create(ctx context.Context, tx *gorm.DB, show *Show) error
	Update(ctx context.Context, tx *gorm.DB, show *Show) error
	DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error)
	IncrementUpvotes(ctx context.Context, tx *gorm.DB, id string) (int64, error)
	GetUpvotes(ctx context.Context, tx *gorm.DB, id string) (int64, error)
	RecomputeUpvotes(ctx context.Context, tx *gorm.DB) (int64, error)
}

type showRepository struct {
	log logger.Logger
}

func NewShowRepository() ShowRepository {
	return &showRepository{
		log: logger.New("showRepository"),
	}
}

func applyShowFilter(db *gorm.DB, filter ShowFilter) *gorm.DB {
	if filter.Query != "" {
		db = db.Where(
			"to_tsvector(?, search_text) @@ plainto_tsquery(?, ?)",
			searchConfig, searchConfig, filter.Query,
		)
	}
	if filter.Genre != "" {
		db = db.Where("genres @> ARRAY[?]::text[]", filter.Genre)
	}
	if filter.Decade != "" {
		db = db.Where("decades @> ARRAY[?]::text[]", filter.Decade)
	}
	if filter.Station != "" {
		db = db.Where("station = ?", filter.Station)
	}
	return db
}

// orderExpression builds the ORDER BY for a list query. Every branch ends in a
// total order so pages never overlap.
func orderExpression(order ShowOrder, query string) (string, []any) {
	switch order.Field {
	case SortRelevance:
		if query == "" {
			return "original_broadcast DESC, id ASC", nil
		}
		return "ts_rank(to_tsvector(?, search_text), plainto_tsquery(?, ?)) DESC, original_broadcast DESC, id ASC",
			[]any{searchConfig, searchConfig, query}
	case SortStation, SortTitle:
		return "LOWER(" + string(order.Field) + ") " + order.Direction.sql() +
			", original_broadcast DESC, id ASC", nil
	default:
		return "original_broadcast " + order.Direction.sql() + ", id ASC", nil
	}
}

func (r *showRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	query ShowListQuery,
) ([]*Show, error) {
	log := r.log.Function("List")

	sql, vars := orderExpression(query.Order, query.Filter.Query)
	db := applyShowFilter(tx.WithContext(ctx).Model(&Show{}), query.Filter).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: sql, Vars: vars, WithoutParentheses: true},
		})

	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}
	if query.Offset > 0 {
		db = db.Offset(query.Offset)
	}

	var shows []*Show
	if err := db.Find(&shows).Error; err != nil {
		return nil, log.Err("failed to list shows", err, "filter", query.Filter)
	}

	return shows, nil
}

func (r *showRepository) Count(ctx context.Context, tx *gorm.DB, filter ShowFilter) (int64, error) {
	log := r.log.Function("Count")

	var total int64
	if err := applyShowFilter(tx.WithContext(ctx).Model(&Show{}), filter).
		Count(&total).Error; err != nil {
		return 0, log.Err("failed to count shows", err, "filter", filter)
	}

	return total, nil
}

func (r *showRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*Show, error) {
	log := r.log.Function("GetByID")

	var show Show
	if err := tx.WithContext(ctx).Where("id = ?", id).Take(&show).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get show by ID", err, "id", id)
	}

	return &show, nil
}

func (r *showRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*Show, error) {
	log := r.log.Function("GetByIDs")

	shows := []*Show{}
	if len(ids) == 0 {
		return shows, nil
	}

	if err := tx.WithContext(ctx).
		Where("id IN ?", ids).
		Order("original_broadcast DESC, id ASC").
		Find(&shows).Error; err != nil {
		return nil, log.Err("failed to get shows by IDs", err, "count", len(ids))
	}

	return shows, nil
}

func (r *showRepository) Random(ctx context.Context, tx *gorm.DB) (*Show, error) {
	log := r.log.Function("Random")

	var shows []*Show
	if err := tx.WithContext(ctx).Order("random()").Limit(1).Find(&shows).Error; err != nil {
		return nil, log.Err("failed to pick random show", err)
	}

	if len(shows) == 0 {
		return nil, nil
	}

	return shows[0], nil
}

func (r *showRepository) DistinctGenres(ctx context.Context, tx *gorm.DB) ([]string, error) {
	return r.distinctArrayValues(ctx, tx, "genres")
}

func (r *showRepository) DistinctDecades(ctx context.Context, tx *gorm.DB) ([]string, error) {
	return r.distinctArrayValues(ctx, tx, "decades")
}

func (r *showRepository) distinctArrayValues(
	ctx context.Context,
	tx *gorm.DB,
	column string,
) ([]string, error) {
	log := r.log.Function("distinctArrayValues")

	values := []string{}
	if err := tx.WithContext(ctx).
		Raw("SELECT DISTINCT value FROM shows, UNNEST(" + column + ") AS value WHERE value <> ''").
		Scan(&values).Error; err != nil {
		return nil, log.Err("failed to get distinct values", err, "column", column)
	}

	return values, nil
}

func (r *showRepository) DistinctStations(ctx context.Context, tx *gorm.DB) ([]string, error) {
	log := r.log.Function("DistinctStations")

	stations := []string{}
	if err := tx.WithContext(ctx).
		Model(&Show{}).
		Distinct("station").
		Where("station <> ''").
		Pluck("station", &stations).Error; err != nil {
		return nil, log.Err("failed to get distinct stations", err)
	}

	return stations, nil
}

func (r *showRepository) Create(ctx context.Context, tx *gorm.DB, show *Show) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(show).Error; err != nil {
		return log.Err("failed to create show", err, "id", show.ID)
	}

	return nil
}

// Update overwrites the content columns of the show with the same natural key.
// created_at and upvotes are left to the row.
func (r *showRepository) Update(ctx context.Context, tx *gorm.DB, show *Show) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).
		Model(&Show{}).
		Where("id = ?", show.ID).
		Select(ShowUpdateColumns).
		Updates(show)
	if result.Error != nil {
		return log.Err("failed to update show", result.Error, "id", show.ID)
	}

	if result.RowsAffected == 0 {
		return log.Err("failed to update show", gorm.ErrRecordNotFound, "id", show.ID)
	}

	return nil
}

func (r *showRepository) DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	log := r.log.Function("DeleteAll")

	result := tx.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&Show{})
	if result.Error != nil {
		return 0, log.Err("failed to delete shows", result.Error)
	}

	log.Info("Deleted shows", "count", result.RowsAffected)
	return result.RowsAffected, nil
}

// IncrementUpvotes adds one vote in a single statement and reports how many
// rows matched. Zero means the show does not exist.
func (r *showRepository) IncrementUpvotes(ctx context.Context, tx *gorm.DB, id string) (int64, error) {
	log := r.log.Function("IncrementUpvotes")

	result := tx.WithContext(ctx).
		Model(&Show{}).
		Where("id = ?", id).
		UpdateColumn("upvotes", gorm.Expr("upvotes + ?", 1))
	if result.Error != nil {
		return 0, log.Err("failed to increment upvotes", result.Error, "id", id)
	}

	return result.RowsAffected, nil
}

func (r *showRepository) GetUpvotes(ctx context.Context, tx *gorm.DB, id string) (int64, error) {
	log := r.log.Function("GetUpvotes")

	var upvotes []int64
	if err := tx.WithContext(ctx).
		Model(&Show{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("upvotes", &upvotes).Error; err != nil {
		return 0, log.Err("failed to get upvotes", err, "id", id)
	}

	if len(upvotes) == 0 {
		return 0, nil
	}

	return upvotes[0], nil
}

const recomputeUpvotesSQL = `UPDATE shows SET upvotes = counts.total
FROM (
	SELECT show_id, COUNT(*) AS total
	FROM show_reactions
	WHERE type = ?
	GROUP BY show_id
) AS counts
WHERE shows.id = counts.show_id`

// RecomputeUpvotes sets every counter that has reactions to its reaction
// count. Shows without reactions keep their stored value.
func (r *showRepository) RecomputeUpvotes(ctx context.Context, tx *gorm.DB) (int64, error) {
	log := r.log.Function("RecomputeUpvotes")

	result := tx.WithContext(ctx).Exec(recomputeUpvotesSQL, ReactionTypeUpvote)
	if result.Error != nil {
		return 0, log.Err("failed to recompute upvotes", result.Error)
	}

	log.Info("Reconciled upvotes", "shows", result.RowsAffected)
	return result.RowsAffected, nil
}

// NormalizeIDs trims ids and drops empties and repeats, keeping first
// occurrence order.
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
