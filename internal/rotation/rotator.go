// Package rotation moves the single "active" flag through the feed sources
// in ascending priority order, wrapping around after the highest priority.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hoanghai1803/whatif/internal/models"
	"github.com/hoanghai1803/whatif/internal/storage"
)

// Store is the subset of storage.Store the rotator needs.
type Store interface {
	GetActiveSource(ctx context.Context) (*models.FeedSource, error)
	NextSourceAbove(ctx context.Context, priority int) (*models.FeedSource, error)
	LowestPrioritySource(ctx context.Context) (*models.FeedSource, error)
	SwitchActiveSource(ctx context.Context, nextID int64) (int64, error)
}

// Result describes one rotation. Next is nil when there were no sources.
type Result struct {
	Previous    *models.FeedSource
	Next        *models.FeedSource
	Deactivated int64
	Wrapped     bool
}

// Rotator advances the active source.
type Rotator struct {
	store  Store
	logger *slog.Logger
}

// NewRotator creates a Rotator. A nil logger uses slog.Default().
func NewRotator(store Store, logger *slog.Logger) *Rotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rotator{store: store, logger: logger}
}

// Rotate activates the source whose priority follows the current active
// source, wrapping to the lowest priority when the current one is the
// highest. With no active source the lowest priority is chosen. The switch
// is a single transaction that leaves exactly one source active.
func (r *Rotator) Rotate(ctx context.Context) (Result, error) {
	var res Result

	currentPriority := -1
	current, err := r.store.GetActiveSource(ctx)
	switch {
	case err == nil:
		res.Previous = current
		currentPriority = current.Priority
	case errors.Is(err, storage.ErrNotFound):
	default:
		return res, fmt.Errorf("loading active source: %w", err)
	}

	next, err := r.store.NextSourceAbove(ctx, currentPriority)
	if errors.Is(err, storage.ErrNotFound) {
		res.Wrapped = true
		next, err = r.store.LowestPrioritySource(ctx)
	}
	if errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("no feed sources to rotate")
		return Result{}, nil
	}
	if err != nil {
		return res, fmt.Errorf("finding next source: %w", err)
	}

	deactivated, err := r.store.SwitchActiveSource(ctx, next.ID)
	if err != nil {
		return res, fmt.Errorf("switching active source to %d: %w", next.ID, err)
	}
	next.Status = models.StatusActive
	res.Next = next
	res.Deactivated = deactivated

	attrs := []any{
		"next_id", next.ID,
		"next_name", next.Name,
		"next_priority", next.Priority,
		"deactivated", deactivated,
		"wrapped", res.Wrapped,
	}
	if current != nil {
		attrs = append(attrs, "previous_id", current.ID, "previous_name", current.Name)
	}
	r.logger.Info("rotated active source", attrs...)
	return res, nil
}
