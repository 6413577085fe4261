package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hoanghai1803/whatif/internal/ai"
	"github.com/hoanghai1803/whatif/internal/config"
	"github.com/hoanghai1803/whatif/internal/feeds"
	"github.com/hoanghai1803/whatif/internal/ingest"
	"github.com/hoanghai1803/whatif/internal/retention"
	"github.com/hoanghai1803/whatif/internal/rotation"
	"github.com/hoanghai1803/whatif/internal/storage"
)

// app holds the components shared by every command.
type app struct {
	cfg     *config.Config
	store   *storage.Store
	rotator *rotation.Rotator
}

// newApp loads the config, opens and migrates the database and seeds the
// feed sources of a fresh database.
func newApp(ctx context.Context) (*app, error) {
	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Open database with WAL mode and pragmas.
	db, err := storage.OpenDatabase(filepath.Join(dataDir, "whatif.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := storage.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	store := storage.NewStore(db)
	if err := seedSources(ctx, store, cfg); err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		store:   store,
		rotator: rotation.NewRotator(store, slog.Default()),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("closing database", "error", err)
	}
}

// seedSources fills an empty feed_sources table from the configured YAML
// file, or from the built-in list when none is set.
func seedSources(ctx context.Context, store *storage.Store, cfg *config.Config) error {
	if cfg.Feeds.SourcesFile == "" {
		if err := store.SeedDefaults(ctx); err != nil {
			return fmt.Errorf("seeding default sources: %w", err)
		}
		return nil
	}

	sources, err := storage.LoadSourcesFile(cfg.Feeds.SourcesFile)
	if err != nil {
		return err
	}
	for i := range sources {
		if sources[i].FetchLimit <= 0 {
			sources[i].FetchLimit = cfg.Feeds.DefaultFetchLimit
		}
	}
	if err := store.SeedSources(ctx, sources); err != nil {
		return fmt.Errorf("seeding sources from %s: %w", cfg.Feeds.SourcesFile, err)
	}
	return nil
}

// newPipeline wires the feed fetcher, classification gateway and retention
// sweeper into an ingestion pipeline.
func (a *app) newPipeline(ctx context.Context) (*ingest.Pipeline, error) {
	if a.cfg.AI.APIKey == "" {
		return nil, errors.New("no AI provider API key configured: set ai.api_key or AI_API_KEY")
	}

	completer, err := ai.NewCompleter(ctx, ai.ProviderConfig{
		Provider:  a.cfg.AI.Provider,
		APIKey:    a.cfg.AI.APIKey,
		Model:     a.cfg.AI.Model,
		BaseURL:   a.cfg.AI.BaseURL,
		MaxTokens: a.cfg.AI.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("creating AI provider: %w", err)
	}
	slog.Info("AI provider configured", "provider", a.cfg.AI.Provider, "model", a.cfg.AI.Model)

	prompt := ai.DefaultPrompt()
	if a.cfg.Classifier.PromptFile != "" {
		prompt, err = ai.LoadPrompt(a.cfg.Classifier.PromptFile)
		if err != nil {
			return nil, err
		}
	}

	gateway := ai.NewGateway(completer, ai.WithTimeout(a.cfg.AITimeout()), ai.WithPrompt(prompt))
	sweeper := retention.New(a.store, retention.WithWindows(a.cfg.LogRetention(), a.cfg.ItemRetention()))

	return ingest.New(a.store, feeds.NewFetcher(a.cfg.FetchTimeout()), gateway, sweeper, ingest.Config{
		Throttle: a.cfg.Throttle(),
		LogDays:  a.cfg.Retention.LogDays,
		ItemDays: a.cfg.Retention.ItemDays,
	}), nil
}
