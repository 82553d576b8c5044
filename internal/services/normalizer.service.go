package services

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"

	"mcbarchive/internal/models"
	"mcbarchive/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Descriptor is one human-authored show record as decoded from YAML.
type Descriptor map[string]any

// ValidationError names the descriptor field that could not be normalized.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing/invalid %s: %s", e.Field, e.Message)
}

var broadcastLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

var (
	showValidator     *validator.Validate
	showValidatorOnce sync.Once
)

func getShowValidator() *validator.Validate {
	showValidatorOnce.Do(func() {
		showValidator = validator.New(validator.WithRequiredStructEnabled())
		showValidator.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return showValidator
}

// NormalizeShow turns a descriptor into the canonical show. CreatedAt is left
// zero; the merge policy decides it.
func NormalizeShow(d Descriptor, sourcePath string, now time.Time) (*models.Show, error) {
	id, err := requireString(d, "id")
	if err != nil {
		return nil, err
	}
	title, err := requireString(d, "title")
	if err != nil {
		return nil, err
	}
	image, err := requireString(d, "image")
	if err != nil {
		return nil, err
	}
	audioFileLink, err := requireString(d, "audio_file_link")
	if err != nil {
		return nil, err
	}
	genres, err := requireStringSet(d, "genres")
	if err != nil {
		return nil, err
	}
	broadcast, err := requireDate(d, "original_broadcast")
	if err != nil {
		return nil, err
	}
	station, err := requireString(d, "station")
	if err != nil {
		return nil, err
	}
	songs, err := requireSongs(d, "songs")
	if err != nil {
		return nil, err
	}

	// A null or absent decades key falls back to the legacy decade key.
	decadesRaw := d["decades"]
	if decadesRaw == nil {
		decadesRaw = d["decade"]
	}
	decades := stringSet(decadesRaw)

	show := &models.Show{
		ID:                       id,
		Title:                    title,
		Image:                    image,
		AudioFileLink:            audioFileLink,
		Genres:                   pq.StringArray(genres),
		Decades:                  pq.StringArray(decades),
		OriginalBroadcast:        broadcast,
		OriginalBroadcastDisplay: optionalString(d["original_broadcast_display"]),
		Station:                  station,
		DurationSeconds:          optionalDuration(d["duration_seconds"]),
		Songs:                    datatypes.JSONSlice[models.Song](songs),
		SourcePath:               sourcePath,
		UpdatedAt:                now,
		Upvotes:                  0,
	}
	show.SearchText = BuildSearchText(show)

	if err := getShowValidator().Struct(show); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return nil, &ValidationError{
				Field:   fieldErrs[0].Field(),
				Message: "failed " + fieldErrs[0].Tag() + " check",
			}
		}
		return nil, err
	}

	return show, nil
}

// BuildSearchText is the lowercase full-text corpus of a show.
func BuildSearchText(show *models.Show) string {
	parts := make([]string, 0, 3+len(show.Genres)+2*len(show.Songs))
	parts = append(parts, show.ID, show.Title, show.Station)
	parts = append(parts, show.Genres...)
	for _, song := range show.Songs {
		parts = append(parts, song.Title, song.Artist)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func requireString(d Descriptor, field string) (string, error) {
	value, ok := d[field].(string)
	if !ok {
		return "", &ValidationError{Field: field, Message: "expected a string"}
	}
	value = utils.CleanText(value)
	if value == "" {
		return "", &ValidationError{Field: field, Message: "expected a non-empty string"}
	}
	return value, nil
}

func requireStringSet(d Descriptor, field string) ([]string, error) {
	raw, ok := d[field].([]any)
	if !ok || len(raw) == 0 {
		return nil, &ValidationError{Field: field, Message: "expected non-empty array"}
	}
	values := stringSet(raw)
	if len(values) == 0 {
		return nil, &ValidationError{Field: field, Message: "no valid strings"}
	}
	return values, nil
}

// stringSet trims, lowercases and dedupes string entries, keeping first
// occurrence order. Anything that is not a list of strings yields an empty set.
func stringSet(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return []string{}
	}

	seen := make(map[string]struct{}, len(items))
	values := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.ToLower(utils.CleanText(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		values = append(values, s)
	}
	return values
}

func requireDate(d Descriptor, field string) (time.Time, error) {
	switch value := d[field].(type) {
	case time.Time:
		return value.UTC(), nil
	case string:
		raw := utils.CleanText(value)
		if raw == "" {
			return time.Time{}, &ValidationError{Field: field, Message: "expected a non-empty string"}
		}
		for _, layout := range broadcastLayouts {
			if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, &ValidationError{
			Field:   field,
			Message: "expected ISO date string: " + raw,
		}
	default:
		return time.Time{}, &ValidationError{Field: field, Message: "expected ISO date string"}
	}
}

func requireSongs(d Descriptor, field string) ([]models.Song, error) {
	raw, ok := d[field].([]any)
	if !ok {
		return nil, &ValidationError{Field: field, Message: "expected array"}
	}

	songs := make([]models.Song, 0, len(raw))
	for _, item := range raw {
		var entry map[string]any
		switch e := item.(type) {
		case map[string]any:
			entry = e
		case Descriptor:
			entry = map[string]any(e)
		default:
			continue
		}
		title, _ := entry["title"].(string)
		artist, _ := entry["artist"].(string)
		title = utils.CleanText(title)
		artist = utils.CleanText(artist)
		if title == "" || artist == "" {
			continue
		}
		songs = append(songs, models.Song{Title: title, Artist: artist})
	}

	if len(songs) == 0 {
		return nil, &ValidationError{Field: field, Message: "no valid entries"}
	}
	return songs, nil
}

func optionalString(raw any) *string {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	s = utils.CleanText(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalDuration(raw any) *int {
	var value float64
	switch n := raw.(type) {
	case int:
		value = float64(n)
	case int64:
		value = float64(n)
	case uint64:
		value = float64(n)
	case float64:
		value = n
	default:
		return nil
	}

	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 || value > math.MaxInt32 {
		return nil
	}
	seconds := int(math.Floor(value))
	if seconds <= 0 {
		return nil
	}
	return &seconds
}
