package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/hoanghai1803/whatif/internal/models"
)

// Source names used for run log entries that do not belong to a feed.
const (
	systemSource     = "System"
	taskRunnerSource = "TaskRunner"
)

// runLog appends RunLogEntry rows for one run and mirrors each one to the
// process logger. Write failures never reach the run.
type runLog struct {
	store  Store
	runID  string
	now    func() time.Time
	logger *slog.Logger
}

func (l *runLog) write(ctx context.Context, level models.LogLevel, message, sourceName, details, result string) {
	entry := &models.RunLogEntry{
		RunID:      l.runID,
		Level:      level,
		Message:    truncateRunes(message, models.MaxLogMessageLen),
		SourceName: truncateRunes(sourceName, models.MaxLogSourceLen),
		Details:    truncateRunes(details, models.MaxLogDetailsLen),
		Result:     result,
		Timestamp:  l.now(),
	}

	l.logger.Log(ctx, slogLevel(level), entry.Message,
		"run_id", l.runID,
		"source", entry.SourceName,
		"details", entry.Details,
	)

	if _, err := l.store.CreateRunLog(ctx, entry); err != nil {
		l.logger.Debug("dropping run log entry", "run_id", l.runID, "error", err)
	}
}

func (l *runLog) info(ctx context.Context, message, sourceName, result string) {
	l.write(ctx, models.LevelInfo, message, sourceName, "", result)
}

func (l *runLog) warn(ctx context.Context, message, sourceName, details string) {
	l.write(ctx, models.LevelWarning, message, sourceName, details, "")
}

func (l *runLog) fail(ctx context.Context, message, sourceName, details string) {
	l.write(ctx, models.LevelError, message, sourceName, details, "")
}

func slogLevel(level models.LogLevel) slog.Level {
	switch level {
	case models.LevelError:
		return slog.LevelError
	case models.LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// truncateRunes cuts s to at most limit runes without splitting a character.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
