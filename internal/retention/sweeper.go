// Package retention deletes run logs and curated items that have aged out of
// their retention windows.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Default retention windows.
const (
	DefaultLogAge  = 7 * 24 * time.Hour
	DefaultItemAge = 90 * 24 * time.Hour
)

// Store is the subset of storage.Store the sweeper needs.
type Store interface {
	DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteItemsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Result reports how many rows a sweep removed.
type Result struct {
	LogsRemoved  int64
	ItemsRemoved int64
}

// Sweeper removes records older than its windows. Rows exactly at a cutoff
// are kept.
type Sweeper struct {
	store   Store
	logAge  time.Duration
	itemAge time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithWindows overrides the default retention windows. Non-positive values
// keep the default.
func WithWindows(logAge, itemAge time.Duration) Option {
	return func(s *Sweeper) {
		if logAge > 0 {
			s.logAge = logAge
		}
		if itemAge > 0 {
			s.itemAge = itemAge
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithLogger sets the logger. A nil logger uses slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Sweeper over store.
func New(store Store, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:   store,
		logAge:  DefaultLogAge,
		itemAge: DefaultItemAge,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogDays and ItemDays report the windows in whole days, for run summaries.
func (s *Sweeper) LogDays() int  { return int(s.logAge / (24 * time.Hour)) }
func (s *Sweeper) ItemDays() int { return int(s.itemAge / (24 * time.Hour)) }

// Sweep deletes run logs older than the log window, then curated items older
// than the item window. Both cutoffs are taken from a single clock reading.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	now := s.now()

	var res Result
	logs, err := s.store.DeleteLogsBefore(ctx, now.Add(-s.logAge))
	if err != nil {
		return res, fmt.Errorf("sweeping run logs: %w", err)
	}
	res.LogsRemoved = logs

	items, err := s.store.DeleteItemsBefore(ctx, now.Add(-s.itemAge))
	if err != nil {
		return res, fmt.Errorf("sweeping curated items: %w", err)
	}
	res.ItemsRemoved = items

	s.logger.Info("retention sweep complete",
		"logs_removed", res.LogsRemoved,
		"items_removed", res.ItemsRemoved,
	)
	return res, nil
}
