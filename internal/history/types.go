package history

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the run-history store.
//
// Driver values:
//   - "file": dependency-free append-only JSONL backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RunRecord is one persisted per-subject run outcome.
// Keep it compact and schema-stable.
type RunRecord struct {
	At           time.Time `json:"at"`
	Subject      string    `json:"subject"`
	AnalysisDate string    `json:"analysis_date"`
	OK           bool      `json:"ok"`
	Decision     string    `json:"decision,omitempty"`
	ReportDir    string    `json:"report_dir,omitempty"`
	Error        string    `json:"error,omitempty"`
	TookMS       int64     `json:"took_ms"`
}
