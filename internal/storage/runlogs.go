package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/hoanghai1803/whatif/internal/models"
)

// LogFilter narrows ListRunLogs. Zero values mean "no filter".
type LogFilter struct {
	Level      models.LogLevel
	SourceName string
	RunID      string
	Limit      int
}

// CreateRunLog appends a run log entry and returns its ID. A zero Timestamp
// is set to the current time. Field lengths are the caller's concern.
func (s *Store) CreateRunLog(ctx context.Context, entry *models.RunLogEntry) (int64, error) {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO run_logs (run_id, level, message, source_name, details, result, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, string(entry.Level), entry.Message, entry.SourceName,
		entry.Details, entry.Result, formatTime(ts),
	)
	if err != nil {
		return 0, fmt.Errorf("creating run log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting run log id: %w", err)
	}
	return id, nil
}

// ListRunLogs returns run log entries newest first.
func (s *Store) ListRunLogs(ctx context.Context, f LogFilter) ([]models.RunLogEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := sq.Select("id", "run_id", "level", "message", "source_name", "details", "result", "timestamp").
		From("run_logs").
		OrderBy("timestamp DESC", "id DESC").
		Limit(uint64(limit))
	if f.Level != "" {
		q = q.Where(sq.Eq{"level": string(f.Level)})
	}
	if f.SourceName != "" {
		q = q.Where(sq.Eq{"source_name": f.SourceName})
	}
	if f.RunID != "" {
		q = q.Where(sq.Eq{"run_id": f.RunID})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building run log query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying run logs: %w", err)
	}
	defer rows.Close()

	entries := []models.RunLogEntry{}
	for rows.Next() {
		var (
			e     models.RunLogEntry
			level string
			ts    string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &level, &e.Message, &e.SourceName, &e.Details, &e.Result, &ts); err != nil {
			return nil, fmt.Errorf("scanning run log row: %w", err)
		}
		e.Level = models.LogLevel(level)
		e.Timestamp = parseTime(ts)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run log rows: %w", err)
	}
	return entries, nil
}

// DeleteLogsBefore removes run log entries timestamped strictly before cutoff
// and returns how many were deleted.
func (s *Store) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := sq.Delete("run_logs").
		Where(sq.Lt{"timestamp": formatTime(cutoff)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building run log delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting old run logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted run logs: %w", err)
	}
	return n, nil
}
