package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/hoanghai1803/whatif/internal/models"
)

// defaultListLimit caps list queries that do not specify a limit.
const defaultListLimit = 100

// ItemFilter narrows ListCuratedItems. Zero values mean "no filter".
type ItemFilter struct {
	Category models.Category
	SourceID int64
	Limit    int
}

// CreateCuratedItem inserts a curated item and returns its ID. A zero
// CreatedAt is set to the current time; a zero PublishedAt falls back to
// CreatedAt.
func (s *Store) CreateCuratedItem(ctx context.Context, item *models.CuratedItem) (int64, error) {
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	publishedAt := item.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = createdAt
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO curated_items
			(feed_source_id, title, translated_title, source_url, published_at, category,
			 summary, translated_summary, inspiration_text, translated_inspiration_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.FeedSourceID, item.Title, item.TranslatedTitle, item.SourceURL,
		formatTime(publishedAt), string(item.Category), item.Summary,
		item.TranslatedSummary, item.InspirationText, item.TranslatedInspirationText,
		formatTime(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("creating curated item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting curated item id: %w", err)
	}
	return id, nil
}

// ListCuratedItems returns curated items newest first.
func (s *Store) ListCuratedItems(ctx context.Context, f ItemFilter) ([]models.CuratedItem, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := sq.Select(
		"id", "feed_source_id", "title", "translated_title", "source_url", "published_at",
		"category", "summary", "translated_summary", "inspiration_text",
		"translated_inspiration_text", "created_at",
	).From("curated_items").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))
	if f.Category != "" {
		q = q.Where(sq.Eq{"category": string(f.Category)})
	}
	if f.SourceID != 0 {
		q = q.Where(sq.Eq{"feed_source_id": f.SourceID})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building item query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying curated items: %w", err)
	}
	defer rows.Close()

	items := []models.CuratedItem{}
	for rows.Next() {
		var (
			item        models.CuratedItem
			sourceID    sql.NullInt64
			publishedAt string
			category    string
			createdAt   string
		)
		if err := rows.Scan(
			&item.ID, &sourceID, &item.Title, &item.TranslatedTitle, &item.SourceURL,
			&publishedAt, &category, &item.Summary, &item.TranslatedSummary,
			&item.InspirationText, &item.TranslatedInspirationText, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning curated item row: %w", err)
		}
		if sourceID.Valid {
			v := sourceID.Int64
			item.FeedSourceID = &v
		}
		item.Category = models.Category(category)
		item.PublishedAt = parseTime(publishedAt)
		item.CreatedAt = parseTime(createdAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating curated item rows: %w", err)
	}
	return items, nil
}

// DeleteItemsBefore removes curated items created strictly before cutoff and
// returns how many were deleted.
func (s *Store) DeleteItemsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := sq.Delete("curated_items").
		Where(sq.Lt{"created_at": formatTime(cutoff)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building item delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting old curated items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted curated items: %w", err)
	}
	return n, nil
}
