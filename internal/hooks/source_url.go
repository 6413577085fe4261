// Package hooks holds write-path hooks that adjust entity updates before
// they are committed.
package hooks

import (
	"context"
	"log/slog"

	"github.com/hoanghai1803/whatif/internal/models"
	"github.com/hoanghai1803/whatif/internal/storage"
)

// SourceReader loads a feed source by ID.
type SourceReader interface {
	GetSource(ctx context.Context, id int64) (*models.FeedSource, error)
}

// ResetOnURLChange gives a source whose feed URL is being replaced a clean
// slate: failure counter zeroed, last error cleared, status active. Updates
// that do not touch the URL, or set it to its current value, are returned
// unchanged, as is the update when the stored source cannot be read.
func ResetOnURLChange(ctx context.Context, reader SourceReader, id int64, upd storage.SourceUpdate) storage.SourceUpdate {
	if upd.URL == nil {
		return upd
	}

	current, err := reader.GetSource(ctx, id)
	if err != nil {
		slog.Warn("reading source for url change check", "source_id", id, "error", err)
		return upd
	}
	if current.URL == *upd.URL {
		return upd
	}

	zero := 0
	active := models.StatusActive
	upd.ConsecutiveFailures = &zero
	upd.ClearLastFetchError = true
	upd.Status = &active

	slog.Info("feed url changed, resetting failure state",
		"source_id", id,
		"old_url", current.URL,
		"new_url", *upd.URL,
	)
	return upd
}
