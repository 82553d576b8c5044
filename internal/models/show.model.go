package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Song struct {
	Title  string `json:"title"  validate:"required"`
	Artist string `json:"artist" validate:"required"`
}

// Show is one archived broadcast. ID is the natural key used by every lookup;
// PK is the row identity and never leaves the store.
type Show struct {
	PK                       uuid.UUID                 `gorm:"column:pk;type:uuid;primaryKey"                                          json:"-"`
	ID                       string                    `gorm:"column:id;type:text;not null;uniqueIndex:idx_shows_id"                   json:"id"                                   validate:"required"`
	Title                    string                    `gorm:"column:title;type:text;not null"                                         json:"title"                                validate:"required"`
	Image                    string                    `gorm:"column:image;type:text;not null"                                         json:"image"                                validate:"required"`
	AudioFileLink            string                    `gorm:"column:audio_file_link;type:text;not null"                               json:"audio_file_link"                      validate:"required"`
	Genres                   pq.StringArray            `gorm:"column:genres;type:text[];not null"                                      json:"genres"                               validate:"required,min=1,dive,required"`
	Decades                  pq.StringArray            `gorm:"column:decades;type:text[];not null"                                     json:"decades"                              validate:"dive,required"`
	OriginalBroadcast        time.Time                 `gorm:"column:original_broadcast;not null;index:idx_shows_original_broadcast,sort:desc" json:"original_broadcast"           validate:"required"`
	OriginalBroadcastDisplay *string                   `gorm:"column:original_broadcast_display;type:text"                             json:"original_broadcast_display,omitempty"`
	Station                  string                    `gorm:"column:station;type:text;not null"                                       json:"station"                              validate:"required"`
	DurationSeconds          *int                      `gorm:"column:duration_seconds;type:int"                                        json:"duration_seconds,omitempty"           validate:"omitempty,gt=0"`
	Songs                    datatypes.JSONSlice[Song] `gorm:"column:songs;type:jsonb;not null"                                        json:"songs"                                validate:"required,min=1,dive"`
	SearchText               string                    `gorm:"column:search_text;type:text;not null"                                   json:"searchText"                           validate:"required"`
	SourcePath               string                    `gorm:"column:source_path;type:text;not null"                                   json:"sourcePath"`
	CreatedAt                time.Time                 `gorm:"column:created_at;not null;autoCreateTime:false"                         json:"createdAt"`
	UpdatedAt                time.Time                 `gorm:"column:updated_at;not null;autoUpdateTime:false"                         json:"updatedAt"`
	Upvotes                  int64                     `gorm:"column:upvotes;not null;check:chk_shows_upvotes_non_negative,upvotes >= 0" json:"upvotes"                              validate:"gte=0"`
}

// ShowSummary is the card-sized view of a show used by listings.
type ShowSummary struct {
	ID                       string   `json:"id"`
	Title                    string   `json:"title"`
	Image                    string   `json:"image"`
	AudioFileLink            string   `json:"audio_file_link"`
	Genres                   []string `json:"genres"`
	Decades                  []string `json:"decades,omitempty"`
	OriginalBroadcast        string   `json:"original_broadcast"`
	OriginalBroadcastDisplay *string  `json:"original_broadcast_display,omitempty"`
	Station                  string   `json:"station"`
	Upvotes                  int64    `json:"upvotes"`
}

// ShowUpdateColumns are overwritten when an existing show is re-ingested.
// created_at, upvotes and pk are never written on update.
var ShowUpdateColumns = []string{
	"title",
	"image",
	"audio_file_link",
	"genres",
	"decades",
	"original_broadcast",
	"original_broadcast_display",
	"station",
	"duration_seconds",
	"songs",
	"search_text",
	"source_path",
	"updated_at",
}

func (s *Show) BeforeCreate(tx *gorm.DB) error {
	if s.PK == uuid.Nil {
		pk, err := uuid.NewV7()
		if err != nil {
			return err
		}
		s.PK = pk
	}
	if s.ID == "" {
		return gorm.ErrInvalidValue
	}
	if s.Genres == nil {
		s.Genres = pq.StringArray{}
	}
	if s.Decades == nil {
		s.Decades = pq.StringArray{}
	}
	return nil
}

func (s *Show) Summary() ShowSummary {
	return ShowSummary{
		ID:                       s.ID,
		Title:                    s.Title,
		Image:                    s.Image,
		AudioFileLink:            s.AudioFileLink,
		Genres:                   []string(s.Genres),
		Decades:                  []string(s.Decades),
		OriginalBroadcast:        s.OriginalBroadcast.UTC().Format(time.RFC3339Nano),
		OriginalBroadcastDisplay: s.OriginalBroadcastDisplay,
		Station:                  s.Station,
		Upvotes:                  s.Upvotes,
	}
}

func Summaries(shows []*Show) []ShowSummary {
	summaries := make([]ShowSummary, 0, len(shows))
	for _, show := range shows {
		summaries = append(summaries, show.Summary())
	}
	return summaries
}

// MergeShow decides the stored form of an ingested show. Every content field
// comes from incoming; identity, creation time and the vote counter come from
// existing when there is one. A nil existing yields a fresh insert.
func MergeShow(existing, incoming *Show, now time.Time) *Show {
	merged := *incoming
	merged.UpdatedAt = now

	if existing == nil {
		merged.PK = uuid.Nil
		merged.CreatedAt = now
		merged.Upvotes = 0
		return &merged
	}

	merged.PK = existing.PK
	merged.CreatedAt = existing.CreatedAt
	merged.Upvotes = existing.Upvotes
	if merged.CreatedAt.IsZero() {
		merged.CreatedAt = now
	}
	if merged.Upvotes < 0 {
		merged.Upvotes = 0
	}
	return &merged
}
