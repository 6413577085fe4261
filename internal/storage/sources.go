package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/hoanghai1803/whatif/internal/models"
)

// defaultSources defines the science feeds seeded into a new database. Only
// the lowest-priority source starts active; rotation moves the flag daily.
var defaultSources = []models.FeedSource{
	{Name: "ScienceDaily", URL: "https://www.sciencedaily.com/rss/top/science.xml", Priority: 1, Status: models.StatusActive, FetchLimit: 3},
	{Name: "Phys.org", URL: "https://phys.org/rss-feed/", Priority: 2, Status: models.StatusInactive, FetchLimit: 3},
	{Name: "Quanta Magazine", URL: "https://www.quantamagazine.org/feed/", Priority: 3, Status: models.StatusInactive, FetchLimit: 3},
	{Name: "New Scientist", URL: "https://www.newscientist.com/feed/home/", Priority: 4, Status: models.StatusInactive, FetchLimit: 3},
	{Name: "MIT Technology Review", URL: "https://www.technologyreview.com/feed/", Priority: 5, Status: models.StatusInactive, FetchLimit: 3},
	{Name: "NASA Breaking News", URL: "https://www.nasa.gov/news-release/feed/", Priority: 6, Status: models.StatusInactive, FetchLimit: 3},
	{Name: "Nature News", URL: "https://www.nature.com/nature.rss", Priority: 7, Status: models.StatusInactive, FetchLimit: 3},
	{Name: "Ars Technica Science", URL: "https://feeds.arstechnica.com/arstechnica/science", Priority: 8, Status: models.StatusInactive, FetchLimit: 3},
}

const sourceColumns = `id, name, url, priority, status, fetch_limit, consecutive_failures,
	last_fetch_error, last_fetched_at, last_saved_item_count,
	consecutive_fetch_count, created_at, updated_at`

// SourceUpdate is a partial update of a feed source. Nil fields are left
// untouched. ClearLastFetchError sets last_fetch_error to NULL.
type SourceUpdate struct {
	Name                *string
	URL                 *string
	Priority            *int
	Status              *models.SourceStatus
	FetchLimit          *int
	ConsecutiveFailures *int
	ClearLastFetchError bool
}

// GetAllSources returns every feed source ordered by ascending priority.
func (s *Store) GetAllSources(ctx context.Context) ([]models.FeedSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sourceColumns+` FROM feed_sources ORDER BY priority ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying all sources: %w", err)
	}
	defer rows.Close()

	return scanSources(rows)
}

// ListActiveSources returns all sources with status "active", highest
// priority first.
func (s *Store) ListActiveSources(ctx context.Context) ([]models.FeedSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sourceColumns+` FROM feed_sources
		 WHERE status = 'active' ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying active sources: %w", err)
	}
	defer rows.Close()

	return scanSources(rows)
}

// GetSource returns the source with the given ID.
// Returns nil, ErrNotFound if no matching row exists.
func (s *Store) GetSource(ctx context.Context, id int64) (*models.FeedSource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM feed_sources WHERE id = ?`, id)
	return scanSourceRow(row, "getting source by id")
}

// GetActiveSource returns the active source with the lowest ID.
// Returns nil, ErrNotFound when no source is active.
func (s *Store) GetActiveSource(ctx context.Context) (*models.FeedSource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM feed_sources
		 WHERE status = 'active' ORDER BY id ASC LIMIT 1`)
	return scanSourceRow(row, "getting active source")
}

// NextSourceAbove returns the source with the smallest priority strictly
// greater than priority. Returns nil, ErrNotFound when there is none.
func (s *Store) NextSourceAbove(ctx context.Context, priority int) (*models.FeedSource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM feed_sources
		 WHERE priority > ? ORDER BY priority ASC, id ASC LIMIT 1`, priority)
	return scanSourceRow(row, "getting next source")
}

// LowestPrioritySource returns the source with the smallest priority overall.
// Returns nil, ErrNotFound when the table is empty.
func (s *Store) LowestPrioritySource(ctx context.Context) (*models.FeedSource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM feed_sources ORDER BY priority ASC, id ASC LIMIT 1`)
	return scanSourceRow(row, "getting lowest priority source")
}

// SwitchActiveSource makes nextID the only active source. Every other active
// source is set inactive in the same transaction, so readers never observe
// zero or two active sources. It returns the number of sources deactivated.
func (s *Store) SwitchActiveSource(ctx context.Context, nextID int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning rotation transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	now := formatTime(time.Now())

	res, err := tx.ExecContext(ctx,
		`UPDATE feed_sources SET status = 'inactive', updated_at = ?
		 WHERE status = 'active' AND id != ?`, now, nextID)
	if err != nil {
		return 0, fmt.Errorf("deactivating sources: %w", err)
	}
	deactivated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking deactivated rows: %w", err)
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE feed_sources SET status = 'active', updated_at = ? WHERE id = ?`, now, nextID)
	if err != nil {
		return 0, fmt.Errorf("activating source %d: %w", nextID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected for source %d: %w", nextID, err)
	}
	if n == 0 {
		return 0, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rotation transaction: %w", err)
	}
	return deactivated, nil
}

// CreateSource inserts a new feed source and returns its ID. An empty status
// defaults to inactive.
func (s *Store) CreateSource(ctx context.Context, src *models.FeedSource) (int64, error) {
	status := src.Status
	if status == "" {
		status = models.StatusInactive
	}
	fetchLimit := src.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = models.DefaultFetchLimit
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feed_sources (name, url, priority, status, fetch_limit)
		 VALUES (?, ?, ?, ?, ?)`,
		src.Name, src.URL, src.Priority, string(status), fetchLimit,
	)
	if err != nil {
		return 0, fmt.Errorf("creating source %q: %w", src.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting source id: %w", err)
	}
	return id, nil
}

// UpdateSource applies a partial update to the source with the given ID.
// It returns ErrNotFound if no source matches.
func (s *Store) UpdateSource(ctx context.Context, id int64, upd SourceUpdate) error {
	set := map[string]any{"updated_at": formatTime(time.Now())}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.URL != nil {
		set["url"] = *upd.URL
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.Status != nil {
		set["status"] = string(*upd.Status)
	}
	if upd.FetchLimit != nil {
		set["fetch_limit"] = *upd.FetchLimit
	}
	if upd.ConsecutiveFailures != nil {
		set["consecutive_failures"] = *upd.ConsecutiveFailures
	}
	if upd.ClearLastFetchError {
		set["last_fetch_error"] = nil
	}

	query, args, err := sq.Update("feed_sources").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building source update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating source %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for source %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordFetchSuccess stores the bookkeeping of a completed poll: fetch time,
// number of saved items, an incremented fetch counter and cleared failures.
func (s *Store) RecordFetchSuccess(ctx context.Context, id int64, fetchedAt time.Time, savedItems int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE feed_sources SET
			last_fetched_at         = ?,
			last_saved_item_count   = ?,
			consecutive_fetch_count = consecutive_fetch_count + 1,
			consecutive_failures    = 0,
			last_fetch_error        = NULL,
			updated_at              = ?
		 WHERE id = ?`,
		formatTime(fetchedAt), savedItems, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("recording fetch for source %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for source %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordFetchFailure increments the failure counter and stores the error
// message of a failed poll.
func (s *Store) RecordFetchFailure(ctx context.Context, id int64, fetchErr string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE feed_sources SET
			consecutive_failures = consecutive_failures + 1,
			last_fetch_error     = ?,
			updated_at           = ?
		 WHERE id = ?`,
		fetchErr, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("recording fetch failure for source %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for source %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedDefaults inserts the built-in feed sources if the table is empty.
func (s *Store) SeedDefaults(ctx context.Context) error {
	return s.SeedSources(ctx, defaultSources)
}

// SeedSources inserts the given sources if the feed_sources table is empty.
// All inserts happen within a single transaction. This operation is
// idempotent: calling it on a non-empty table is a no-op.
func (s *Store) SeedSources(ctx context.Context, sources []models.FeedSource) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feed_sources`).Scan(&count); err != nil {
		return fmt.Errorf("counting feed sources: %w", err)
	}

	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO feed_sources (name, url, priority, status, fetch_limit)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing seed statement: %w", err)
	}
	defer stmt.Close()

	for _, src := range sources {
		status := src.Status
		if status == "" {
			status = models.StatusInactive
		}
		if _, err := stmt.ExecContext(ctx, src.Name, src.URL, src.Priority, string(status), src.EffectiveFetchLimit()); err != nil {
			return fmt.Errorf("seeding source %q: %w", src.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}

	return nil
}

// DefaultSourceCount returns the number of default sources that will be
// seeded into a new database. Useful for tests.
func DefaultSourceCount() int {
	return len(defaultSources)
}

// scanSourceRow scans a single-row source query, mapping sql.ErrNoRows to
// ErrNotFound.
func scanSourceRow(row scanner, op string) (*models.FeedSource, error) {
	src, err := scanSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return src, nil
}

// scanSource scans one feed_sources row selected with sourceColumns.
func scanSource(row scanner) (*models.FeedSource, error) {
	var (
		src           models.FeedSource
		status        string
		lastError     sql.NullString
		lastFetchedAt sql.NullString
		createdAt     string
		updatedAt     string
	)
	if err := row.Scan(
		&src.ID, &src.Name, &src.URL, &src.Priority, &status, &src.FetchLimit,
		&src.ConsecutiveFailures, &lastError, &lastFetchedAt,
		&src.LastSavedItemCount, &src.ConsecutiveFetchCount, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	src.Status = models.SourceStatus(status)
	src.LastFetchError = nullStringToPtr(lastError)
	src.LastFetchedAt = parseTimePtr(nullStringToPtr(lastFetchedAt))
	src.CreatedAt = parseTime(createdAt)
	src.UpdatedAt = parseTime(updatedAt)
	return &src, nil
}

// scanSources reads all rows from a feed_sources query into a slice.
func scanSources(rows *sql.Rows) ([]models.FeedSource, error) {
	var sources []models.FeedSource
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		sources = append(sources, *src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source rows: %w", err)
	}

	// Return empty slice instead of nil for consistent JSON serialization.
	if sources == nil {
		sources = []models.FeedSource{}
	}

	return sources, nil
}
