package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDescriptorYAML = `id: kpty-1998-01
title: Night Shift
image: https://example.com/a.jpg
audio_file_link: https://example.com/a.mp3
genres:
  - House
original_broadcast: 1998-01-17
station: KPTY
songs:
  - title: A
    artist: B
`

const missingTitleYAML = `id: kpty-1998-02
image: https://example.com/b.jpg
audio_file_link: https://example.com/b.mp3
genres: [House]
original_broadcast: 1998-02-01
station: KPTY
songs:
  - title: C
    artist: D
`

func writeDescriptor(t *testing.T, dir, name, content string) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type ingestionFixture struct {
	service   *IngestionService
	queries   *ShowQueryService
	votes     *VoteService
	store     *fakeStore
	shows     *fakeReconcilingShowRepository
	reactions *fakeReactionRepository
}

func newIngestionFixture(t *testing.T, now time.Time) ingestionFixture {
	t.Helper()

	store := &fakeStore{}
	repos, shows, reactions := newFakeRepos()
	transaction := fakeTransactor{}

	queries := NewShowQueryService(store, repos)
	votes := NewVoteService(store, transaction, repos)
	service := NewIngestionService(store, transaction, repos, votes, queries)
	service.now = func() time.Time { return now }

	return ingestionFixture{
		service:   service,
		queries:   queries,
		votes:     votes,
		store:     store,
		shows:     shows,
		reactions: reactions,
	}
}

func TestIngestionService_Run_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "kpty/1998-01.yml", validDescriptorYAML)
	writeDescriptor(t, dir, "kpty/1998-02.yaml", missingTitleYAML)
	writeDescriptor(t, dir, "notes.txt", "not a descriptor")

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fixture := newIngestionFixture(t, now)

	var seen []FileResult
	report, err := fixture.service.Run(context.Background(), IngestOptions{
		ShowsDir: dir,
		OnResult: func(r FileResult) { seen = append(seen, r) },
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, report.OK())
	assert.Equal(t, 1, fixture.store.schemaCalls)

	require.Len(t, seen, 2)
	assert.Equal(t, ActionInserted, seen[0].Action)
	assert.Equal(t, "kpty-1998-01", seen[0].ShowID)
	assert.Equal(t, ActionInvalid, seen[1].Action)
	var validationErr *ValidationError
	require.True(t, errors.As(seen[1].Err, &validationErr))
	assert.Equal(t, "title", validationErr.Field)

	show, err := fixture.queries.GetShow(context.Background(), "kpty-1998-01")
	require.NoError(t, err)
	require.NotNil(t, show)
	assert.Equal(t, []string{"house"}, []string(show.Genres))
	assert.Equal(t, now, show.CreatedAt)
	assert.Equal(t, now, show.UpdatedAt)
	assert.Equal(t, int64(0), show.Upvotes)
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "kpty/1998-01.yml")), show.SourcePath)
}

func TestIngestionService_Run_ReingestPreservesCreatedAtAndUpvotes(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "show.yml", validDescriptorYAML)

	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fixture := newIngestionFixture(t, first)
	ctx := context.Background()

	_, err := fixture.service.Run(ctx, IngestOptions{ShowsDir: dir})
	require.NoError(t, err)

	_, err = fixture.votes.UpvoteOnce(ctx, "kpty-1998-01", "device-1")
	require.NoError(t, err)
	_, err = fixture.votes.UpvoteOnce(ctx, "kpty-1998-01", "device-2")
	require.NoError(t, err)

	writeDescriptor(t, dir, "show.yml", strings.Replace(validDescriptorYAML, "station: KPTY", "station: KXLU", 1))

	second := first.Add(24 * time.Hour)
	fixture.service.now = func() time.Time { return second }

	report, err := fixture.service.Run(ctx, IngestOptions{ShowsDir: dir})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 1, report.Updated)
	assert.True(t, report.OK())

	show, err := fixture.queries.GetShow(ctx, "kpty-1998-01")
	require.NoError(t, err)
	require.NotNil(t, show)
	assert.Equal(t, "KXLU", show.Station)
	assert.Equal(t, first, show.CreatedAt)
	assert.Equal(t, second, show.UpdatedAt)
	assert.Equal(t, int64(2), show.Upvotes)
	assert.Contains(t, show.SearchText, "kxlu")
}

func TestIngestionService_Run_DryRun(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "show.yml", validDescriptorYAML)
	writeDescriptor(t, dir, "broken.yml", "id: [unterminated")

	fixture := newIngestionFixture(t, time.Now())

	report, err := fixture.service.Run(context.Background(), IngestOptions{
		ShowsDir: dir,
		DryRun:   true,
		Reset:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.WouldUpsert)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, fixture.store.schemaCalls)
	assert.Empty(t, fixture.shows.shows)
}

func TestIngestionService_Run_ConflictingResets(t *testing.T) {
	fixture := newIngestionFixture(t, time.Now())

	_, err := fixture.service.Run(context.Background(), IngestOptions{
		ShowsDir:   t.TempDir(),
		Reset:      true,
		ResetShows: true,
	})

	assert.ErrorIs(t, err, ErrConflictingResetModes)
}

func TestIngestionService_Run_NoDescriptors(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "readme.md", "# shows")

	fixture := newIngestionFixture(t, time.Now())

	_, err := fixture.service.Run(context.Background(), IngestOptions{ShowsDir: dir})

	assert.ErrorIs(t, err, ErrNoDescriptors)
}

func TestIngestionService_Run_MissingDirectory(t *testing.T) {
	fixture := newIngestionFixture(t, time.Now())

	_, err := fixture.service.Run(context.Background(), IngestOptions{
		ShowsDir: filepath.Join(t.TempDir(), "absent"),
	})

	assert.Error(t, err)
}

func TestIngestionService_Run_FullReset(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "show.yml", validDescriptorYAML)

	fixture := newIngestionFixture(t, time.Now())
	ctx := context.Background()

	_, err := fixture.service.Run(ctx, IngestOptions{ShowsDir: dir})
	require.NoError(t, err)
	_, err = fixture.votes.UpvoteOnce(ctx, "kpty-1998-01", "device-1")
	require.NoError(t, err)

	report, err := fixture.service.Run(ctx, IngestOptions{ShowsDir: dir, Reset: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Empty(t, fixture.reactions.counts())

	upvotes, err := fixture.votes.GetUpvotes(ctx, "kpty-1998-01")
	require.NoError(t, err)
	assert.Equal(t, int64(0), upvotes)
}

func TestIngestionService_Run_ResetShowsReconciles(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "show.yml", validDescriptorYAML)

	fixture := newIngestionFixture(t, time.Now())
	ctx := context.Background()

	_, err := fixture.service.Run(ctx, IngestOptions{ShowsDir: dir})
	require.NoError(t, err)
	for _, device := range []string{"device-1", "device-2", "device-3"} {
		_, err := fixture.votes.UpvoteOnce(ctx, "kpty-1998-01", device)
		require.NoError(t, err)
	}

	writeDescriptor(t, dir, "zz-broken.yml", missingTitleYAML)

	report, err := fixture.service.Run(ctx, IngestOptions{ShowsDir: dir, ResetShows: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, int64(1), report.Reconciled)

	upvotes, err := fixture.votes.GetUpvotes(ctx, "kpty-1998-01")
	require.NoError(t, err)
	assert.Equal(t, int64(3), upvotes)
}

func TestIngestionService_Run_StoreErrorAborts(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "show.yml", validDescriptorYAML)

	fixture := newIngestionFixture(t, time.Now())
	fixture.shows.err = errors.New("connection refused")

	_, err := fixture.service.Run(context.Background(), IngestOptions{ShowsDir: dir})

	assert.Error(t, err)
}

func TestLoadDescriptor(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "seq.yml", "- a\n- b\n")
	writeDescriptor(t, dir, "empty.yml", "")
	writeDescriptor(t, dir, "ok.yml", validDescriptorYAML)

	_, err := LoadDescriptor(filepath.Join(dir, "seq.yml"))
	assert.Error(t, err)

	_, err = LoadDescriptor(filepath.Join(dir, "empty.yml"))
	assert.Error(t, err)

	descriptor, err := LoadDescriptor(filepath.Join(dir, "ok.yml"))
	require.NoError(t, err)
	assert.Equal(t, "kpty-1998-01", descriptor["id"])
}

func TestDiscoverDescriptors_Sorted(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "b.yml", validDescriptorYAML)
	writeDescriptor(t, dir, "a/z.YAML", validDescriptorYAML)
	writeDescriptor(t, dir, "a/c.yml", validDescriptorYAML)
	writeDescriptor(t, dir, "c.json", "{}")

	files, err := DiscoverDescriptors(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a", "c.yml"),
		filepath.Join(dir, "a", "z.YAML"),
		filepath.Join(dir, "b.yml"),
	}, files)
}
