package feeds

import (
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is one entry of a fetched feed, reduced to the fields the ingestion
// pipeline reads.
type Item struct {
	Title       string
	Content     string
	Description string
	Link        string
	GUID        string
	PublishedAt *time.Time
}

// Body returns the richest markup available for the item: the full content
// (content:encoded in RSS, content in Atom) when present, else the
// description.
func (it Item) Body() string {
	if it.Content != "" {
		return it.Content
	}
	return it.Description
}

// URL returns the item's link, falling back to its GUID.
func (it Item) URL() string {
	if it.Link != "" {
		return it.Link
	}
	return it.GUID
}

// itemsFromFeed converts gofeed items into Items, preserving feed order. Nil
// entries are dropped.
func itemsFromFeed(feed *gofeed.Feed) []Item {
	if feed == nil {
		return nil
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}

		var publishedAt *time.Time
		switch {
		case it.PublishedParsed != nil:
			t := *it.PublishedParsed
			publishedAt = &t
		case it.UpdatedParsed != nil:
			t := *it.UpdatedParsed
			publishedAt = &t
		}

		items = append(items, Item{
			Title:       it.Title,
			Content:     it.Content,
			Description: it.Description,
			Link:        it.Link,
			GUID:        it.GUID,
			PublishedAt: publishedAt,
		})
	}
	return items
}
