package ingest

import (
	"fmt"
	"strings"
	"time"
)

// SourceStats counts one source's contribution to a run.
type SourceStats struct {
	Name        string `json:"name"`
	Selected    int    `json:"selected"`
	Saved       int    `json:"saved"`
	FetchFailed bool   `json:"fetch_failed,omitempty"`
}

// RunStats accumulates the outcome of one run.
type RunStats struct {
	RunID               string        `json:"run_id"`
	StartedAt           time.Time     `json:"started_at"`
	FinishedAt          time.Time     `json:"finished_at"`
	TotalSources        int           `json:"total_sources"`
	TotalSelected       int           `json:"total_selected"`
	TotalSaved          int           `json:"total_saved"`
	BookkeepingFailures int           `json:"bookkeeping_failures"`
	LogsRemoved         int64         `json:"logs_removed"`
	ItemsRemoved        int64         `json:"items_removed"`
	Sources             []SourceStats `json:"sources"`
	Failed              bool          `json:"failed"`
}

// Line returns the breakdown line for a source.
func (s SourceStats) Line() string {
	line := fmt.Sprintf("%s: selected %d, saved %d", s.Name, s.Selected, s.Saved)
	if s.FetchFailed {
		line += " (fetch failed)"
	}
	return line
}

// Summary renders the multi-line result stored with the terminal run log.
func (s *RunStats) Summary(logDays, itemDays int) string {
	lines := []string{
		fmt.Sprintf("Total Sources: %d", s.TotalSources),
		fmt.Sprintf("Total Selected (AI): %d", s.TotalSelected),
		fmt.Sprintf("Total Saved (DB): %d", s.TotalSaved),
		fmt.Sprintf("Logs Cleaned: %d (older than %d days)", s.LogsRemoved, logDays),
		fmt.Sprintf("News Cleaned: %d (older than %d days)", s.ItemsRemoved, itemDays),
	}
	if s.BookkeepingFailures > 0 {
		lines = append(lines, fmt.Sprintf("Bookkeeping Failures: %d", s.BookkeepingFailures))
	}
	lines = append(lines, "--- Details ---")
	for _, src := range s.Sources {
		lines = append(lines, src.Line())
	}
	return strings.Join(lines, "\n")
}
