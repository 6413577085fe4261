// Package ingest runs the feed ingestion pipeline: poll the active feed
// sources, classify each item, keep the relevant ones and retire old data.
// At most one run is in flight per Pipeline.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hoanghai1803/whatif/internal/ai"
	"github.com/hoanghai1803/whatif/internal/feeds"
	"github.com/hoanghai1803/whatif/internal/models"
	"github.com/hoanghai1803/whatif/internal/retention"
)

// DefaultThrottle is the pause after every classification call.
const DefaultThrottle = 1500 * time.Millisecond

// Store is the persistence the pipeline writes through.
type Store interface {
	ListActiveSources(ctx context.Context) ([]models.FeedSource, error)
	CreateCuratedItem(ctx context.Context, item *models.CuratedItem) (int64, error)
	RecordFetchSuccess(ctx context.Context, id int64, fetchedAt time.Time, savedItems int) error
	RecordFetchFailure(ctx context.Context, id int64, fetchErr string) error
	CreateRunLog(ctx context.Context, entry *models.RunLogEntry) (int64, error)
}

// FeedFetcher downloads a feed's items in feed order.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]feeds.Item, error)
}

// Classifier judges one normalized item.
type Classifier interface {
	Classify(ctx context.Context, title, body string) (*ai.Verdict, error)
}

// Sweeper retires aged run logs and curated items.
type Sweeper interface {
	Sweep(ctx context.Context) (retention.Result, error)
}

// State is the run state of a Pipeline.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Config tunes a Pipeline. Zero values select the defaults.
type Config struct {
	// Throttle is the pause after each classification attempt. Negative
	// disables it.
	Throttle time.Duration

	// LogDays and ItemDays label the retention windows in run summaries.
	LogDays  int
	ItemDays int

	Now      func() time.Time
	NewRunID func() string
	Logger   *slog.Logger
}

// Pipeline is the ingestion orchestrator.
type Pipeline struct {
	store      Store
	fetcher    FeedFetcher
	classifier Classifier
	sweeper    Sweeper
	cfg        Config

	state atomic.Int32
	wg    sync.WaitGroup

	mu      sync.Mutex
	lastRun *RunStats
}

// New creates a Pipeline.
func New(store Store, fetcher FeedFetcher, classifier Classifier, sweeper Sweeper, cfg Config) *Pipeline {
	if cfg.Throttle == 0 {
		cfg.Throttle = DefaultThrottle
	}
	if cfg.LogDays <= 0 {
		cfg.LogDays = int(retention.DefaultLogAge / (24 * time.Hour))
	}
	if cfg.ItemDays <= 0 {
		cfg.ItemDays = int(retention.DefaultItemAge / (24 * time.Hour))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewRunID == nil {
		cfg.NewRunID = uuid.NewString
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Pipeline{
		store:      store,
		fetcher:    fetcher,
		classifier: classifier,
		sweeper:    sweeper,
		cfg:        cfg,
	}
}

// Start begins a run in the background and reports whether it was accepted.
// It returns false without doing any work when a run is already in flight.
// The run keeps ctx's values but not its cancellation.
func (p *Pipeline) Start(ctx context.Context) bool {
	if !p.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return false
	}

	p.wg.Add(1)
	go p.supervise(context.WithoutCancel(ctx))
	return true
}

// Wait blocks until the run in flight, if any, has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// State reports whether a run is in flight.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// LastRun returns the stats of the most recently finished run, or nil.
func (p *Pipeline) LastRun() *RunStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastRun == nil {
		return nil
	}
	cp := *p.lastRun
	cp.Sources = append([]SourceStats(nil), p.lastRun.Sources...)
	return &cp
}

// supervise executes one run and always returns the pipeline to Idle, even
// when the run panics.
func (p *Pipeline) supervise(ctx context.Context) {
	defer p.wg.Done()
	defer p.state.Store(int32(Idle))

	stats := &RunStats{
		RunID:     p.cfg.NewRunID(),
		StartedAt: p.cfg.Now(),
	}
	rl := &runLog{
		store:  p.store,
		runID:  stats.RunID,
		now:    p.cfg.Now,
		logger: p.cfg.Logger,
	}

	defer func() {
		if r := recover(); r != nil {
			stats.Failed = true
			rl.fail(ctx, fmt.Sprintf("Fatal: %v", r), systemSource, string(debug.Stack()))
		}
		stats.FinishedAt = p.cfg.Now()
		p.mu.Lock()
		p.lastRun = stats
		p.mu.Unlock()
	}()

	p.cfg.Logger.Info("ingestion run started", "run_id", stats.RunID)

	if err := p.run(ctx, rl, stats); err != nil {
		stats.Failed = true
		rl.fail(ctx, "Fatal: "+err.Error(), systemSource, err.Error())
		return
	}

	p.cfg.Logger.Info("ingestion run finished",
		"run_id", stats.RunID,
		"sources", stats.TotalSources,
		"selected", stats.TotalSelected,
		"saved", stats.TotalSaved,
	)
}

// run processes every active source, sweeps old data and writes the
// summary. Errors it returns are fatal to the run.
func (p *Pipeline) run(ctx context.Context, rl *runLog, stats *RunStats) error {
	sources, err := p.store.ListActiveSources(ctx)
	if err != nil {
		return fmt.Errorf("loading active sources: %w", err)
	}
	stats.TotalSources = len(sources)

	if len(sources) == 0 {
		p.cfg.Logger.Info("no active feed sources, nothing to ingest", "run_id", stats.RunID)
		return nil
	}

	for _, src := range sources {
		stats.Sources = append(stats.Sources, p.processSource(ctx, rl, src, stats))
	}

	swept, err := p.sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("retention sweep: %w", err)
	}
	stats.LogsRemoved = swept.LogsRemoved
	stats.ItemsRemoved = swept.ItemsRemoved

	rl.info(ctx, "Ingestion run completed", taskRunnerSource, stats.Summary(p.cfg.LogDays, p.cfg.ItemDays))
	return nil
}

// processSource polls one source and classifies up to its fetch limit of
// items. Item failures are logged and skipped.
func (p *Pipeline) processSource(ctx context.Context, rl *runLog, src models.FeedSource, stats *RunStats) SourceStats {
	ss := SourceStats{Name: src.Name}

	items, err := p.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		ss.FetchFailed = true
		rl.fail(ctx, "Fetch Failed: "+err.Error(), src.Name, src.URL)
		if err := p.store.RecordFetchFailure(ctx, src.ID, err.Error()); err != nil {
			p.cfg.Logger.Warn("recording fetch failure", "source", src.Name, "error", err)
		}
		return ss
	}

	if limit := src.EffectiveFetchLimit(); len(items) > limit {
		items = items[:limit]
	}

	for _, item := range items {
		title := feeds.StripTags(item.Title)
		body := feeds.NormalizeBody(item.Body())
		if !feeds.Classifiable(body) {
			continue
		}

		verdict, err := p.classifier.Classify(ctx, title, body)
		p.throttle(ctx)
		if err == nil && verdict == nil {
			err = errors.New("empty verdict")
		}
		if err != nil {
			rl.warn(ctx, "AI/DB Error: "+err.Error(), src.Name, title)
			continue
		}
		if !verdict.Relevant {
			continue
		}

		ss.Selected++
		stats.TotalSelected++

		if _, err := p.store.CreateCuratedItem(ctx, p.curatedItem(src, item, title, verdict)); err != nil {
			rl.warn(ctx, "AI/DB Error: "+err.Error(), src.Name, title)
			continue
		}
		ss.Saved++
		stats.TotalSaved++
	}

	if err := p.store.RecordFetchSuccess(ctx, src.ID, p.cfg.Now(), ss.Saved); err != nil {
		stats.BookkeepingFailures++
		rl.warn(ctx, "Bookkeeping Failed: "+err.Error(), src.Name, src.URL)
	}
	return ss
}

func (p *Pipeline) curatedItem(src models.FeedSource, item feeds.Item, title string, v *ai.Verdict) *models.CuratedItem {
	now := p.cfg.Now()
	publishedAt := now
	if item.PublishedAt != nil {
		publishedAt = *item.PublishedAt
	}
	sourceID := src.ID

	return &models.CuratedItem{
		FeedSourceID:              &sourceID,
		Title:                     title,
		TranslatedTitle:           v.TranslatedTitle,
		SourceURL:                 item.URL(),
		PublishedAt:               publishedAt,
		Category:                  models.Category(v.Category),
		Summary:                   v.Summary,
		TranslatedSummary:         v.TranslatedSummary,
		InspirationText:           v.InspirationText,
		TranslatedInspirationText: v.TranslatedInspirationText,
		CreatedAt:                 now,
	}
}

func (p *Pipeline) throttle(ctx context.Context) {
	if p.cfg.Throttle <= 0 {
		return
	}
	t := time.NewTimer(p.cfg.Throttle)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
