package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/whatif/internal/hooks"
	"github.com/hoanghai1803/whatif/internal/models"
	"github.com/hoanghai1803/whatif/internal/storage"
)

type createSourceRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	URL        string `json:"url" validate:"required,url"`
	Priority   int    `json:"priority" validate:"gte=0"`
	Status     string `json:"status" validate:"omitempty,oneof=active inactive"`
	FetchLimit int    `json:"fetch_limit" validate:"gte=0,lte=50"`
}

type updateSourceRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	URL        *string `json:"url" validate:"omitempty,url"`
	Priority   *int    `json:"priority" validate:"omitempty,gte=0"`
	Status     *string `json:"status" validate:"omitempty,oneof=active inactive"`
	FetchLimit *int    `json:"fetch_limit" validate:"omitempty,gte=1,lte=50"`
}

func (req updateSourceRequest) empty() bool {
	return req.Name == nil && req.URL == nil && req.Priority == nil &&
		req.Status == nil && req.FetchLimit == nil
}

func (req updateSourceRequest) toUpdate() storage.SourceUpdate {
	upd := storage.SourceUpdate{
		Name:       req.Name,
		URL:        req.URL,
		Priority:   req.Priority,
		FetchLimit: req.FetchLimit,
	}
	if req.Status != nil {
		status := models.SourceStatus(*req.Status)
		upd.Status = &status
	}
	return upd
}

// GetSources handles GET /api/sources. It returns all feed sources in
// ascending priority order.
func GetSources(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sources, err := store.GetAllSources(ctx)
		if err != nil {
			slog.Error("failed to get sources", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get sources")
			return
		}

		writeJSON(w, http.StatusOK, sources)
	}
}

// CreateSource handles POST /api/sources. A missing fetch_limit takes
// defaultFetchLimit; a missing status makes the source inactive.
func CreateSource(store *storage.Store, defaultFetchLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createSourceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		src := &models.FeedSource{
			Name:       req.Name,
			URL:        req.URL,
			Priority:   req.Priority,
			Status:     models.SourceStatus(req.Status),
			FetchLimit: req.FetchLimit,
		}
		if src.FetchLimit == 0 {
			src.FetchLimit = defaultFetchLimit
		}

		id, err := store.CreateSource(ctx, src)
		if err != nil {
			slog.Error("failed to create source", "name", req.Name, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to create source")
			return
		}

		created, err := store.GetSource(ctx, id)
		if err != nil {
			slog.Error("failed to load created source", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to load source")
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

// UpdateSource handles PATCH /api/sources/{id}. Only fields present in the
// body change. Pointing a source at a new URL also resets its failure
// bookkeeping and reactivates it.
func UpdateSource(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req updateSourceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.empty() {
			writeError(w, http.StatusBadRequest, "No fields to update")
			return
		}

		upd := hooks.ResetOnURLChange(ctx, store, id, req.toUpdate())

		if err := store.UpdateSource(ctx, id, upd); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Source not found")
				return
			}
			slog.Error("failed to update source", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update source")
			return
		}

		updated, err := store.GetSource(ctx, id)
		if err != nil {
			slog.Error("failed to load updated source", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to load source")
			return
		}

		writeJSON(w, http.StatusOK, updated)
	}
}
