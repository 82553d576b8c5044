package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"mcbarchive/internal/database"
	"mcbarchive/internal/models"
	"mcbarchive/internal/repositories"

	"gorm.io/gorm"
)

// fakeStore hands out a nil handle; the fake repositories never touch it.
type fakeStore struct {
	mu          sync.Mutex
	err         error
	schemaCalls int
}

func (f *fakeStore) SQLWithContext(ctx context.Context) (*gorm.DB, error) {
	return nil, f.err
}

func (f *fakeStore) EnsureSchema(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemaCalls++
	return f.err
}

func (f *fakeStore) Cache() database.CacheClient {
	return nil
}

type fakeTransactor struct {
	err error
}

func (f fakeTransactor) Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx, nil)
}

type fakeShowRepository struct {
	mu    sync.Mutex
	shows map[string]*models.Show
	err   error
}

func newFakeShowRepository(shows ...*models.Show) *fakeShowRepository {
	repo := &fakeShowRepository{shows: map[string]*models.Show{}}
	for _, show := range shows {
		copied := *show
		repo.shows[show.ID] = &copied
	}
	return repo
}

func (f *fakeShowRepository) filtered(filter repositories.ShowFilter) []*models.Show {
	var result []*models.Show
	for _, show := range f.shows {
		if filter.Query != "" && !strings.Contains(show.SearchText, strings.ToLower(filter.Query)) {
			continue
		}
		if filter.Genre != "" && !contains(show.Genres, filter.Genre) {
			continue
		}
		if filter.Decade != "" && !contains(show.Decades, filter.Decade) {
			continue
		}
		if filter.Station != "" && show.Station != filter.Station {
			continue
		}
		copied := *show
		result = append(result, &copied)
	}
	return result
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func (f *fakeShowRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	query repositories.ShowListQuery,
) ([]*models.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	shows := f.filtered(query.Filter)
	byBroadcastThenID := func(a, b *models.Show, desc bool) bool {
		if !a.OriginalBroadcast.Equal(b.OriginalBroadcast) {
			if desc {
				return a.OriginalBroadcast.After(b.OriginalBroadcast)
			}
			return a.OriginalBroadcast.Before(b.OriginalBroadcast)
		}
		return a.ID < b.ID
	}

	sort.SliceStable(shows, func(i, j int) bool {
		a, b := shows[i], shows[j]
		switch query.Order.Field {
		case repositories.SortStation, repositories.SortTitle:
			av, bv := strings.ToLower(a.Station), strings.ToLower(b.Station)
			if query.Order.Field == repositories.SortTitle {
				av, bv = strings.ToLower(a.Title), strings.ToLower(b.Title)
			}
			if av != bv {
				if query.Order.Direction == repositories.SortAsc {
					return av < bv
				}
				return av > bv
			}
			return byBroadcastThenID(a, b, true)
		case repositories.SortRelevance:
			return byBroadcastThenID(a, b, true)
		default:
			return byBroadcastThenID(a, b, query.Order.Direction != repositories.SortAsc)
		}
	})

	if query.Offset >= len(shows) {
		return []*models.Show{}, nil
	}
	shows = shows[query.Offset:]
	if query.Limit > 0 && query.Limit < len(shows) {
		shows = shows[:query.Limit]
	}
	return shows, nil
}

func (f *fakeShowRepository) Count(
	ctx context.Context,
	tx *gorm.DB,
	filter repositories.ShowFilter,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.filtered(filter))), nil
}

func (f *fakeShowRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	show, ok := f.shows[id]
	if !ok {
		return nil, nil
	}
	copied := *show
	return &copied, nil
}

func (f *fakeShowRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var shows []*models.Show
	for _, id := range ids {
		if show, ok := f.shows[id]; ok {
			copied := *show
			shows = append(shows, &copied)
		}
	}
	sort.Slice(shows, func(i, j int) bool {
		return shows[i].OriginalBroadcast.After(shows[j].OriginalBroadcast)
	})
	return shows, nil
}

func (f *fakeShowRepository) Random(ctx context.Context, tx *gorm.DB) (*models.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, show := range f.shows {
		copied := *show
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeShowRepository) distinct(pick func(*models.Show) []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	seen := map[string]struct{}{}
	values := []string{}
	for _, show := range f.shows {
		for _, v := range pick(show) {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				values = append(values, v)
			}
		}
	}
	return values, nil
}

func (f *fakeShowRepository) DistinctGenres(ctx context.Context, tx *gorm.DB) ([]string, error) {
	return f.distinct(func(s *models.Show) []string { return s.Genres })
}

func (f *fakeShowRepository) DistinctDecades(ctx context.Context, tx *gorm.DB) ([]string, error) {
	return f.distinct(func(s *models.Show) []string { return s.Decades })
}

func (f *fakeShowRepository) DistinctStations(ctx context.Context, tx *gorm.DB) ([]string, error) {
	return f.distinct(func(s *models.Show) []string { return []string{s.Station} })
}

func (f *fakeShowRepository) Create(ctx context.Context, tx *gorm.DB, show *models.Show) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.shows[show.ID]; ok {
		return errors.New("duplicate key value violates unique constraint \"idx_shows_id\"")
	}
	copied := *show
	f.shows[show.ID] = &copied
	return nil
}

func (f *fakeShowRepository) Update(ctx context.Context, tx *gorm.DB, show *models.Show) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	existing, ok := f.shows[show.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *show
	copied.PK = existing.PK
	copied.CreatedAt = existing.CreatedAt
	copied.Upvotes = existing.Upvotes
	f.shows[show.ID] = &copied
	return nil
}

func (f *fakeShowRepository) DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.shows))
	f.shows = map[string]*models.Show{}
	return n, nil
}

func (f *fakeShowRepository) IncrementUpvotes(ctx context.Context, tx *gorm.DB, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	show, ok := f.shows[id]
	if !ok {
		return 0, nil
	}
	show.Upvotes++
	return 1, nil
}

func (f *fakeShowRepository) GetUpvotes(ctx context.Context, tx *gorm.DB, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	show, ok := f.shows[id]
	if !ok {
		return 0, nil
	}
	return show.Upvotes, nil
}

// RecomputeUpvotes needs the reaction log, which lives in fakeReactionRepository.
func (f *fakeShowRepository) RecomputeUpvotes(ctx context.Context, tx *gorm.DB) (int64, error) {
	return 0, errors.New("use fakeReconcilingShowRepository")
}

type fakeReconcilingShowRepository struct {
	*fakeShowRepository
	reactions *fakeReactionRepository
}

func (f *fakeReconcilingShowRepository) RecomputeUpvotes(ctx context.Context, tx *gorm.DB) (int64, error) {
	counts := f.reactions.counts()

	f.mu.Lock()
	defer f.mu.Unlock()
	var touched int64
	for showID, total := range counts {
		if show, ok := f.shows[showID]; ok {
			show.Upvotes = total
			touched++
		}
	}
	return touched, nil
}

type reactionKey struct {
	showID, deviceID, kind string
}

type fakeReactionRepository struct {
	mu        sync.Mutex
	reactions map[reactionKey]struct{}
}

func newFakeReactionRepository() *fakeReactionRepository {
	return &fakeReactionRepository{reactions: map[reactionKey]struct{}{}}
}

func (f *fakeReactionRepository) InsertUpvote(
	ctx context.Context,
	tx *gorm.DB,
	reaction *models.Reaction,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := reactionKey{reaction.ShowID, reaction.DeviceID, models.ReactionTypeUpvote}
	if _, ok := f.reactions[key]; ok {
		return false, nil
	}
	f.reactions[key] = struct{}{}
	return true, nil
}

func (f *fakeReactionRepository) DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.reactions))
	f.reactions = map[reactionKey]struct{}{}
	return n, nil
}

func (f *fakeReactionRepository) counts() map[string]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int64{}
	for key := range f.reactions {
		if key.kind == models.ReactionTypeUpvote {
			counts[key.showID]++
		}
	}
	return counts
}

// newFakeRepos wires one show table and one reaction log together.
func newFakeRepos(shows ...*models.Show) (repositories.Repository, *fakeReconcilingShowRepository, *fakeReactionRepository) {
	reactions := newFakeReactionRepository()
	showRepo := &fakeReconcilingShowRepository{
		fakeShowRepository: newFakeShowRepository(shows...),
		reactions:          reactions,
	}
	return repositories.Repository{Show: showRepo, Reaction: reactions}, showRepo, reactions
}
