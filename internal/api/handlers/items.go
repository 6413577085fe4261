package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/whatif/internal/models"
	"github.com/hoanghai1803/whatif/internal/storage"
)

// ListItems handles GET /api/items. Optional query parameters: category,
// source_id and limit. Results are newest first.
func ListItems(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sourceID, err := queryInt(r, "source_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		limit, err := queryInt(r, "limit")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		items, err := store.ListCuratedItems(ctx, storage.ItemFilter{
			Category: models.Category(r.URL.Query().Get("category")),
			SourceID: sourceID,
			Limit:    int(limit),
		})
		if err != nil {
			slog.Error("failed to list curated items", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list items")
			return
		}

		writeJSON(w, http.StatusOK, items)
	}
}
