package models

import "time"

// Category is the topic bucket assigned by the classifier. The set is closed
// by convention only; unknown values are stored as-is.
type Category string

const (
	CategoryBiotech  Category = "biotech"
	CategoryPhysics  Category = "physics"
	CategoryComputer Category = "computer"
	CategorySpace    Category = "space"
	CategoryClimate  Category = "climate"
	CategoryOther    Category = "other"
)

// CuratedItem is a feed item the classifier judged relevant, together with
// the generated metadata.
type CuratedItem struct {
	ID                        int64     `json:"id"`
	FeedSourceID              *int64    `json:"feed_source_id,omitempty"`
	Title                     string    `json:"title"`
	TranslatedTitle           string    `json:"translated_title"`
	SourceURL                 string    `json:"source_url"`
	PublishedAt               time.Time `json:"published_at"`
	Category                  Category  `json:"category"`
	Summary                   string    `json:"summary"`
	TranslatedSummary         string    `json:"translated_summary"`
	InspirationText           string    `json:"inspiration_text"`
	TranslatedInspirationText string    `json:"translated_inspiration_text"`
	CreatedAt                 time.Time `json:"created_at"`
}
