package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/whatif/internal/api/handlers"
	"github.com/hoanghai1803/whatif/internal/config"
	"github.com/hoanghai1803/whatif/internal/storage"
)

// NewRouter creates and configures the HTTP router with the trigger and admin
// API routes.
func NewRouter(store *storage.Store, runner handlers.Runner, rotator handlers.Rotator, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)

	r.Route("/api", func(api chi.Router) {
		api.Post("/process", handlers.TriggerProcess(runner))
		api.Post("/rotate", handlers.TriggerRotate(rotator))
		api.Get("/status", handlers.GetStatus(runner))

		api.Get("/sources", handlers.GetSources(store))
		api.Post("/sources", handlers.CreateSource(store, cfg.Feeds.DefaultFetchLimit))
		api.Patch("/sources/{id}", handlers.UpdateSource(store))

		api.Get("/items", handlers.ListItems(store))
		api.Get("/logs", handlers.ListLogs(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
