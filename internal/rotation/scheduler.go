package rotation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule fires once a day at noon.
const DefaultSchedule = "0 12 * * *"

// Scheduler runs a Rotator on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	rotator *Rotator
	logger  *slog.Logger
}

// NewScheduler parses schedule (standard five-field cron syntax) and binds
// it to rotator. An empty timezone uses the local zone.
func NewScheduler(rotator *Rotator, schedule, timezone string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}

	loc := time.Local
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
		}
	}

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		rotator: rotator,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("parsing rotation schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for
// a rotation in progress to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("rotation scheduler started", "next", s.Next())

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("rotation scheduler stopped")
	return nil
}

// Next returns the time of the next scheduled rotation.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now().In(s.cron.Location()))
}

// runOnce is the cron job. Rotation errors are logged, never propagated.
func (s *Scheduler) runOnce() {
	if _, err := s.rotator.Rotate(context.Background()); err != nil {
		s.logger.Error("scheduled rotation failed", "error", err)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
