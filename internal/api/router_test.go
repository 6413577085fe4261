package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hoanghai1803/whatif/internal/config"
	"github.com/hoanghai1803/whatif/internal/ingest"
	"github.com/hoanghai1803/whatif/internal/rotation"
	"github.com/hoanghai1803/whatif/internal/storage"
)

type stubRunner struct{ accept bool }

func (s stubRunner) Start(context.Context) bool { return s.accept }
func (stubRunner) State() ingest.State { return ingest.Idle }
func (stubRunner) LastRun() *ingest.RunStats { return nil }

type stubRotator struct{}

func (stubRotator) Rotate(context.Context) (rotation.Result, error) {
	return rotation.Result{}, nil
}

func newTestRouter(t *testing.T, accept bool) http.Handler {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	cfg := &config.Config{}
	cfg.Feeds.DefaultFetchLimit = 3
	return NewRouter(storage.NewStore(db), stubRunner{accept: accept}, stubRotator{}, cfg)
}

func TestNewRouter_Routes(t *testing.T) {
	router := newTestRouter(t, true)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/process", http.StatusAccepted},
		{http.MethodPost, "/api/rotate", http.StatusOK},
		{http.MethodGet, "/api/status", http.StatusOK},
		{http.MethodGet, "/api/sources", http.StatusOK},
		{http.MethodGet, "/api/items", http.StatusOK},
		{http.MethodGet, "/api/logs", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/process", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
		{http.MethodOptions, "/api/sources", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			if w.Code != tt.want {
				t.Errorf("got status %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestNewRouter_ProcessAlreadyRunning(t *testing.T) {
	router := newTestRouter(t, false)

	r := httptest.NewRequest(http.MethodPost, "/api/process", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}
