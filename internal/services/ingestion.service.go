package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mcbarchive/config"
	"mcbarchive/internal/database"
	"mcbarchive/internal/metrics"
	"mcbarchive/internal/models"
	"mcbarchive/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type IngestAction string

const (
	ActionInserted IngestAction = "inserted"
	ActionUpdated  IngestAction = "updated"
	ActionDryRun   IngestAction = "dry-run"
	ActionInvalid  IngestAction = "invalid"
)

var (
	ErrConflictingResetModes = errors.New("choose only one: --reset or --reset-shows")
	ErrNoDescriptors         = errors.New("no show descriptor files found")
)

type IngestOptions struct {
	ShowsDir   string
	DryRun     bool
	Reset      bool
	ResetShows bool
	// OnResult, when set, is called once per descriptor file in discovery order.
	OnResult func(FileResult)
}

type FileResult struct {
	Path   string
	ShowID string
	Action IngestAction
	Err    error
}

type IngestReport struct {
	Files       int
	Inserted    int
	Updated     int
	WouldUpsert int
	Failed      int
	Reconciled  int64
	Results     []FileResult
}

// OK reports whether every discovered file was ingested (or would be).
func (r IngestReport) OK() bool {
	return r.Failed == 0
}

type IngestionService struct {
	store       database.Store
	transaction Transactor
	shows       repositories.ShowRepository
	reactions   repositories.ReactionRepository
	votes       *VoteService
	queries     *ShowQueryService
	now         func() time.Time
	log         logger.Logger
}

func NewIngestionService(
	store database.Store,
	transaction Transactor,
	repos repositories.Repository,
	votes *VoteService,
	queries *ShowQueryService,
) *IngestionService {
	return &IngestionService{
		store:       store,
		transaction: transaction,
		shows:       repos.Show,
		reactions:   repos.Reaction,
		votes:       votes,
		queries:     queries,
		now:         time.Now,
		log:         logger.New("IngestionService"),
	}
}

// Run ingests every descriptor under opts.ShowsDir. Descriptor problems are
// counted in the report and never abort the run; store failures do.
func (s *IngestionService) Run(ctx context.Context, opts IngestOptions) (IngestReport, error) {
	log := s.log.Function("Run")

	if opts.Reset && opts.ResetShows {
		return IngestReport{}, ErrConflictingResetModes
	}

	showsDir := strings.TrimSpace(opts.ShowsDir)
	if showsDir == "" {
		showsDir = config.DefaultShowsDir
	}

	files, err := DiscoverDescriptors(showsDir)
	if err != nil {
		return IngestReport{}, log.Err("failed to discover descriptors", err, "showsDir", showsDir)
	}
	if len(files) == 0 {
		return IngestReport{}, fmt.Errorf("%w under %s", ErrNoDescriptors, showsDir)
	}

	now := s.now().UTC()
	report := IngestReport{
		Files:   len(files),
		Results: make([]FileResult, 0, len(files)),
	}

	if opts.DryRun {
		if opts.Reset || opts.ResetShows {
			log.Warn("--reset/--reset-shows has no effect with --dry-run, skipping reset")
		}
	} else {
		if err := s.store.EnsureSchema(ctx); err != nil {
			return report, err
		}
		if err := s.reset(ctx, opts); err != nil {
			return report, err
		}
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		sourcePath := filepath.ToSlash(path)
		show, err := loadAndNormalize(path, sourcePath, now)
		if err != nil {
			report.Failed++
			s.record(&report, opts, FileResult{Path: sourcePath, Action: ActionInvalid, Err: err})
			continue
		}

		if opts.DryRun {
			report.WouldUpsert++
			s.record(&report, opts, FileResult{Path: sourcePath, ShowID: show.ID, Action: ActionDryRun})
			continue
		}

		action, err := s.upsert(ctx, show, now)
		if err != nil {
			return report, err
		}

		if action == ActionInserted {
			report.Inserted++
		} else {
			report.Updated++
		}
		s.record(&report, opts, FileResult{Path: sourcePath, ShowID: show.ID, Action: action})
	}

	if opts.DryRun {
		log.Info("Dry run complete", "files", report.Files, "wouldUpsert", report.WouldUpsert, "failed", report.Failed)
		return report, nil
	}

	// Re-inserted shows start at zero votes. The reaction log survived the
	// reset, so counters are rebuilt from it even when some files failed.
	if opts.ResetShows {
		reconciled, err := s.votes.Reconcile(ctx)
		if err != nil {
			return report, err
		}
		report.Reconciled = reconciled
	}

	if err := s.queries.InvalidateFacets(ctx); err != nil {
		log.Warn("facet cache not invalidated", "error", err)
	}

	log.Info(
		"Ingestion complete",
		"files", report.Files,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *IngestionService) reset(ctx context.Context, opts IngestOptions) error {
	log := s.log.Function("reset")

	if !opts.Reset && !opts.ResetShows {
		return nil
	}

	return s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if opts.Reset {
			log.Info("Resetting shows and show_reactions")
			if _, err := s.reactions.DeleteAll(ctx, tx); err != nil {
				return err
			}
		} else {
			log.Info("Resetting shows, keeping show_reactions")
		}

		_, err := s.shows.DeleteAll(ctx, tx)
		return err
	})
}

// upsert applies the merge policy to the stored copy of show, if any, and
// writes the result.
func (s *IngestionService) upsert(ctx context.Context, show *models.Show, now time.Time) (IngestAction, error) {
	action := ActionInserted

	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := s.shows.GetByID(ctx, tx, show.ID)
		if err != nil {
			return err
		}

		merged := models.MergeShow(existing, show, now)
		if existing == nil {
			return s.shows.Create(ctx, tx, merged)
		}

		action = ActionUpdated
		return s.shows.Update(ctx, tx, merged)
	})

	return action, err
}

func (s *IngestionService) record(report *IngestReport, opts IngestOptions, result FileResult) {
	if result.Err != nil {
		s.log.Function("record").Warn("invalid descriptor", "file", result.Path, "error", result.Err)
	}

	metrics.RecordIngestFile(string(result.Action))
	report.Results = append(report.Results, result)
	if opts.OnResult != nil {
		opts.OnResult(result)
	}
}

func loadAndNormalize(path, sourcePath string, now time.Time) (*models.Show, error) {
	descriptor, err := LoadDescriptor(path)
	if err != nil {
		return nil, err
	}
	return NormalizeShow(descriptor, sourcePath, now)
}

// DiscoverDescriptors returns every .yml and .yaml file below root, sorted.
func DiscoverDescriptors(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yml", ".yaml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// LoadDescriptor reads one YAML file whose top level must be a mapping.
func LoadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	// Decoding into a plain map keeps nested mappings as map[string]any.
	var decoded map[string]any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if decoded == nil {
		return nil, errors.New("expected a YAML mapping at the top level")
	}

	return Descriptor(decoded), nil
}
