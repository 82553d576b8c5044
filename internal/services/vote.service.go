package services

import (
	"context"
	"errors"
	"strings"

	"mcbarchive/internal/database"
	"mcbarchive/internal/metrics"
	"mcbarchive/internal/models"
	"mcbarchive/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

const (
	StatusOK        = "ok"
	StatusDuplicate = "duplicate"
)

var (
	ErrMissingDeviceID = errors.New("missing_device_id")
	ErrShowNotFound    = errors.New("not_found")
)

type VoteResult struct {
	ShowID  string `json:"showId"`
	Upvotes int64  `json:"upvotes"`
	Status  string `json:"status"`
}

type VoteService struct {
	store       database.Store
	transaction Transactor
	shows       repositories.ShowRepository
	reactions   repositories.ReactionRepository
	log         logger.Logger
}

func NewVoteService(
	store database.Store,
	transaction Transactor,
	repos repositories.Repository,
) *VoteService {
	return &VoteService{
		store:       store,
		transaction: transaction,
		shows:       repos.Show,
		reactions:   repos.Reaction,
		log:         logger.New("VoteService"),
	}
}

// UpvoteOnce counts at most one vote per device per show. The reaction insert
// and the counter increment share a transaction; the unique reaction index
// decides which of two racing requests from one device wins.
func (s *VoteService) UpvoteOnce(ctx context.Context, showID, deviceID string) (VoteResult, error) {
	log := s.log.Function("UpvoteOnce")

	showID = strings.TrimSpace(showID)
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return VoteResult{}, ErrMissingDeviceID
	}
	if showID == "" {
		return VoteResult{}, ErrShowNotFound
	}

	result := VoteResult{ShowID: showID}
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		inserted, err := s.reactions.InsertUpvote(ctx, tx, &models.Reaction{
			ShowID:   showID,
			DeviceID: deviceID,
			Type:     models.ReactionTypeUpvote,
		})
		if err != nil {
			return err
		}

		if inserted {
			affected, err := s.shows.IncrementUpvotes(ctx, tx, showID)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrShowNotFound
			}
			result.Status = StatusOK
		} else {
			result.Status = StatusDuplicate
		}

		upvotes, err := s.shows.GetUpvotes(ctx, tx, showID)
		if err != nil {
			return err
		}
		result.Upvotes = upvotes
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrShowNotFound) {
			return VoteResult{}, err
		}
		return VoteResult{}, log.Err("failed to record upvote", err, "showID", showID)
	}

	metrics.RecordUpvote(result.Status)
	return result, nil
}

func (s *VoteService) GetUpvotes(ctx context.Context, showID string) (int64, error) {
	db, err := s.store.SQLWithContext(ctx)
	if err != nil {
		return 0, err
	}

	return s.shows.GetUpvotes(ctx, db, strings.TrimSpace(showID))
}

// Reconcile resets every counter to the size of its reaction group and
// returns how many shows were touched.
func (s *VoteService) Reconcile(ctx context.Context) (int64, error) {
	log := s.log.Function("Reconcile")

	var touched int64
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		touched, err = s.shows.RecomputeUpvotes(ctx, tx)
		return err
	})
	if err != nil {
		return 0, log.Err("failed to rebuild upvote counts", err)
	}

	log.Info("Rebuilt upvote counts from reactions", "shows", touched)
	return touched, nil
}
