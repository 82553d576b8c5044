package repositories

import (
	"context"

	. "mcbarchive/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReactionRepository interface {
	// InsertUpvote records the device's vote. It returns false without error
	// when the device already voted for the show.
	InsertUpvote(ctx context.Context, tx *gorm.DB, reaction *Reaction) (bool, error)
	DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error)
}

type reactionRepository struct {
	log logger.Logger
}

func NewReactionRepository() ReactionRepository {
	return &reactionRepository{
		log: logger.New("reactionRepository"),
	}
}

func (r *reactionRepository) InsertUpvote(
	ctx context.Context,
	tx *gorm.DB,
	reaction *Reaction,
) (bool, error) {
	log := r.log.Function("InsertUpvote")

	reaction.Type = ReactionTypeUpvote
	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "show_id"},
				{Name: "device_id"},
				{Name: "type"},
			},
			DoNothing: true,
		}).
		Create(reaction)
	if result.Error != nil {
		return false, log.Err(
			"failed to insert reaction",
			result.Error,
			"showID", reaction.ShowID,
		)
	}

	return result.RowsAffected == 1, nil
}

func (r *reactionRepository) DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	log := r.log.Function("DeleteAll")

	result := tx.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&Reaction{})
	if result.Error != nil {
		return 0, log.Err("failed to delete reactions", result.Error)
	}

	log.Info("Deleted reactions", "count", result.RowsAffected)
	return result.RowsAffected, nil
}
