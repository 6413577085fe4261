package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/whatif/internal/ingest"
	"github.com/hoanghai1803/whatif/internal/models"
	"github.com/hoanghai1803/whatif/internal/rotation"
)

// Runner starts ingestion runs and reports on them.
type Runner interface {
	Start(ctx context.Context) bool
	State() ingest.State
	LastRun() *ingest.RunStats
}

// Rotator advances the active feed source.
type Rotator interface {
	Rotate(ctx context.Context) (rotation.Result, error)
}

type messageResponse struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type rotateResponse struct {
	Previous    *models.FeedSource `json:"previous"`
	Next        *models.FeedSource `json:"next"`
	Deactivated int64              `json:"deactivated"`
	Wrapped     bool               `json:"wrapped"`
}

type statusResponse struct {
	State   string           `json:"state"`
	LastRun *ingest.RunStats `json:"last_run"`
}

// TriggerProcess handles POST /api/process. It starts an ingestion run in the
// background and answers at once: 202 when the run was accepted, 429 when
// one is already in flight. The run outlives the request.
func TriggerProcess(runner Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !runner.Start(r.Context()) {
			writeJSON(w, http.StatusTooManyRequests, messageResponse{Message: "Task is already running"})
			return
		}
		writeJSON(w, http.StatusAccepted, messageResponse{
			Message: "Processing started",
			Status:  "in-progress",
		})
	}
}

// TriggerRotate handles POST /api/rotate. It advances the active source
// immediately, outside the daily schedule.
func TriggerRotate(rotator Rotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := rotator.Rotate(r.Context())
		if err != nil {
			slog.Error("failed to rotate sources", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to rotate sources")
			return
		}

		writeJSON(w, http.StatusOK, rotateResponse{
			Previous:    res.Previous,
			Next:        res.Next,
			Deactivated: res.Deactivated,
			Wrapped:     res.Wrapped,
		})
	}
}

// GetStatus handles GET /api/status.
func GetStatus(runner Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{
			State:   runner.State().String(),
			LastRun: runner.LastRun(),
		})
	}
}
