package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hoanghai1803/whatif/internal/models"
	"github.com/hoanghai1803/whatif/internal/storage"
)

func seedItems(t *testing.T, store *storage.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	src1, src2 := int64(1), int64(2)
	items := []models.CuratedItem{
		{FeedSourceID: &src1, Title: "Gene drive", Category: models.CategoryBiotech, CreatedAt: base},
		{FeedSourceID: &src1, Title: "Dark matter", Category: models.CategoryPhysics, CreatedAt: base.Add(time.Hour)},
		{FeedSourceID: &src2, Title: "Mars ice", Category: models.CategorySpace, CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range items {
		if _, err := store.CreateCuratedItem(ctx, &items[i]); err != nil {
			t.Fatalf("CreateCuratedItem: %v", err)
		}
	}
}

func TestListItems(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantTitles []string
	}{
		{name: "all newest first", query: "", wantStatus: http.StatusOK, wantTitles: []string{"Mars ice", "Dark matter", "Gene drive"}},
		{name: "by category", query: "?category=physics", wantStatus: http.StatusOK, wantTitles: []string{"Dark matter"}},
		{name: "by source", query: "?source_id=1", wantStatus: http.StatusOK, wantTitles: []string{"Dark matter", "Gene drive"}},
		{name: "limit", query: "?limit=1", wantStatus: http.StatusOK, wantTitles: []string{"Mars ice"}},
		{name: "unknown category", query: "?category=history", wantStatus: http.StatusOK, wantTitles: []string{}},
		{name: "bad limit", query: "?limit=ten", wantStatus: http.StatusBadRequest},
		{name: "negative source", query: "?source_id=-3", wantStatus: http.StatusBadRequest},
	}

	store := newTestStore(t)
	seedItems(t, store)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/items"+tt.query, nil)
			w := httptest.NewRecorder()
			ListItems(store).ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d; body: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var items []models.CuratedItem
			if err := json.NewDecoder(w.Body).Decode(&items); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if items == nil {
				t.Fatal("got null, want a JSON array")
			}
			if len(items) != len(tt.wantTitles) {
				t.Fatalf("got %d items, want %d", len(items), len(tt.wantTitles))
			}
			for i, want := range tt.wantTitles {
				if items[i].Title != want {
					t.Errorf("items[%d].Title = %q, want %q", i, items[i].Title, want)
				}
			}
		})
	}
}
