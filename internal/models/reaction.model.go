package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ReactionTypeUpvote = "upvote"

// Reaction is one device's vote on one show. Rows are append-only and the
// (show_id, device_id, type) triple is unique at the store level.
type Reaction struct {
	PK        uuid.UUID `gorm:"column:pk;type:uuid;primaryKey"                                                            json:"-"`
	ShowID    string    `gorm:"column:show_id;type:text;not null;uniqueIndex:idx_show_reactions_unique,priority:1;index:idx_show_reactions_show_created,priority:1" json:"showId"`
	DeviceID  string    `gorm:"column:device_id;type:text;not null;uniqueIndex:idx_show_reactions_unique,priority:2"      json:"deviceId"`
	Type      string    `gorm:"column:type;type:text;not null;uniqueIndex:idx_show_reactions_unique,priority:3"           json:"type"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_show_reactions_show_created,priority:2,sort:desc" json:"createdAt"`
}

func (Reaction) TableName() string {
	return "show_reactions"
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.PK == uuid.Nil {
		pk, err := uuid.NewV7()
		if err != nil {
			return err
		}
		r.PK = pk
	}
	if r.Type == "" {
		r.Type = ReactionTypeUpvote
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}
