package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hoanghai1803/whatif/internal/models"
	"github.com/hoanghai1803/whatif/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return storage.NewStore(db)
}

func TestSweep_Boundaries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	logCutoff := now.Add(-DefaultLogAge)
	itemCutoff := now.Add(-DefaultItemAge)

	// One second either side of each cutoff.
	for _, ts := range []time.Time{logCutoff.Add(-time.Second), logCutoff.Add(time.Second)} {
		if _, err := store.CreateRunLog(ctx, &models.RunLogEntry{
			Level: models.LevelInfo, Message: ts.String(), Timestamp: ts,
		}); err != nil {
			t.Fatalf("CreateRunLog error: %v", err)
		}
	}
	for _, ts := range []time.Time{itemCutoff.Add(-time.Second), itemCutoff.Add(time.Second)} {
		if _, err := store.CreateCuratedItem(ctx, &models.CuratedItem{
			Title: ts.String(), SourceURL: "https://x", Category: models.CategoryOther, CreatedAt: ts,
		}); err != nil {
			t.Fatalf("CreateCuratedItem error: %v", err)
		}
	}

	s := New(store, WithClock(func() time.Time { return now }))
	res, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep error: %v", err)
	}
	if res.LogsRemoved != 1 {
		t.Errorf("LogsRemoved = %d, want 1", res.LogsRemoved)
	}
	if res.ItemsRemoved != 1 {
		t.Errorf("ItemsRemoved = %d, want 1", res.ItemsRemoved)
	}

	logs, err := store.ListRunLogs(ctx, storage.LogFilter{})
	if err != nil {
		t.Fatalf("ListRunLogs error: %v", err)
	}
	if len(logs) != 1 || !logs[0].Timestamp.Equal(logCutoff.Add(time.Second)) {
		t.Errorf("remaining logs = %+v, want only the one newer than the cutoff", logs)
	}

	items, err := store.ListCuratedItems(ctx, storage.ItemFilter{})
	if err != nil {
		t.Fatalf("ListCuratedItems error: %v", err)
	}
	if len(items) != 1 || !items[0].CreatedAt.Equal(itemCutoff.Add(time.Second)) {
		t.Errorf("remaining items = %+v, want only the one newer than the cutoff", items)
	}
}

func TestSweep_SubSecondCutoff(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 6, 15, 12, 0, 0, 900*int(time.Millisecond), time.UTC)
	logCutoff := now.Add(-DefaultLogAge)
	itemCutoff := now.Add(-DefaultItemAge)

	for _, ts := range []time.Time{logCutoff.Add(-500 * time.Millisecond), logCutoff.Add(100 * time.Millisecond)} {
		if _, err := store.CreateRunLog(ctx, &models.RunLogEntry{
			Level: models.LevelInfo, Message: ts.String(), Timestamp: ts,
		}); err != nil {
			t.Fatalf("CreateRunLog error: %v", err)
		}
	}
	for _, ts := range []time.Time{itemCutoff.Add(-500 * time.Millisecond), itemCutoff.Add(100 * time.Millisecond)} {
		if _, err := store.CreateCuratedItem(ctx, &models.CuratedItem{
			Title: ts.String(), SourceURL: "https://x", Category: models.CategoryOther, CreatedAt: ts,
		}); err != nil {
			t.Fatalf("CreateCuratedItem error: %v", err)
		}
	}

	s := New(store, WithClock(func() time.Time { return now }))
	res, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep error: %v", err)
	}
	if res.LogsRemoved != 1 {
		t.Errorf("LogsRemoved = %d, want 1", res.LogsRemoved)
	}
	if res.ItemsRemoved != 1 {
		t.Errorf("ItemsRemoved = %d, want 1", res.ItemsRemoved)
	}
}

func TestSweep_CustomWindows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	if _, err := store.CreateRunLog(ctx, &models.RunLogEntry{
		Level: models.LevelInfo, Message: "two days old", Timestamp: now.Add(-48 * time.Hour),
	}); err != nil {
		t.Fatalf("CreateRunLog error: %v", err)
	}

	s := New(store,
		WithClock(func() time.Time { return now }),
		WithWindows(24*time.Hour, 0),
	)
	if s.LogDays() != 1 || s.ItemDays() != 90 {
		t.Errorf("windows = %d/%d days, want 1/90", s.LogDays(), s.ItemDays())
	}

	res, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep error: %v", err)
	}
	if res.LogsRemoved != 1 {
		t.Errorf("LogsRemoved = %d, want 1", res.LogsRemoved)
	}
}

type failingStore struct{}

func (failingStore) DeleteLogsBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("disk full")
}

func (failingStore) DeleteItemsBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestSweep_StoreError(t *testing.T) {
	if _, err := New(failingStore{}).Sweep(context.Background()); err == nil {
		t.Fatal("expected error from failing store")
	}
}
