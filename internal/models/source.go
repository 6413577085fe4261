package models

import "time"

// SourceStatus is the rotation state of a feed source.
type SourceStatus string

const (
	StatusActive   SourceStatus = "active"
	StatusInactive SourceStatus = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s SourceStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// DefaultFetchLimit is the number of feed items considered per poll when a
// source does not set its own limit.
const DefaultFetchLimit = 3

// FeedSource represents a syndication feed polled by the ingestion pipeline.
type FeedSource struct {
	ID                    int64        `json:"id"`
	Name                  string       `json:"name"`
	URL                   string       `json:"url"`
	Priority              int          `json:"priority"`
	Status                SourceStatus `json:"status"`
	FetchLimit            int          `json:"fetch_limit"`
	ConsecutiveFailures   int          `json:"consecutive_failures"`
	LastFetchError        *string      `json:"last_fetch_error,omitempty"`
	LastFetchedAt         *time.Time   `json:"last_fetched_at,omitempty"`
	LastSavedItemCount    int          `json:"last_saved_item_count"`
	ConsecutiveFetchCount int          `json:"consecutive_fetch_count"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

// EffectiveFetchLimit returns the source's fetch limit, falling back to
// DefaultFetchLimit when unset.
func (s FeedSource) EffectiveFetchLimit() int {
	if s.FetchLimit <= 0 {
		return DefaultFetchLimit
	}
	return s.FetchLimit
}
