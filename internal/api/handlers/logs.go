package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/whatif/internal/models"
	"github.com/hoanghai1803/whatif/internal/storage"
)

// ListLogs handles GET /api/logs. Optional query parameters: level, source,
// run_id and limit.
func ListLogs(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := r.URL.Query()

		level := models.LogLevel(q.Get("level"))
		switch level {
		case "", models.LevelInfo, models.LevelWarning, models.LevelError:
		default:
			writeError(w, http.StatusBadRequest, `invalid "level" parameter: must be info, warning or error`)
			return
		}

		limit, err := queryInt(r, "limit")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		entries, err := store.ListRunLogs(ctx, storage.LogFilter{
			Level:      level,
			SourceName: q.Get("source"),
			RunID:      q.Get("run_id"),
			Limit:      int(limit),
		})
		if err != nil {
			slog.Error("failed to list run logs", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list logs")
			return
		}

		writeJSON(w, http.StatusOK, entries)
	}
}
