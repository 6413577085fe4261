package models

import "time"

// LogLevel is the severity of a run log entry.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// Field limits for run log entries.
const (
	MaxLogMessageLen = 255
	MaxLogSourceLen  = 50
	MaxLogDetailsLen = 255
)

// RunLogEntry is an append-only record written by the ingestion pipeline.
// Result carries the multi-line summary of a completed run and is empty for
// every other entry.
type RunLogEntry struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	Level      LogLevel  `json:"level"`
	Message    string    `json:"message"`
	SourceName string    `json:"source_name"`
	Details    string    `json:"details,omitempty"`
	Result     string    `json:"result,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
