// Package history persists per-run outcomes as an operational audit log.
// The report tree remains the durable record of a run; history exists so
// operators can answer "what ran, when, and how did it go" without walking
// the tree.
package history

import (
	"context"
	"errors"
	"strings"

	"tickerd/pkg/logx"
)

// Store is the minimal persistence API used by the app.
type Store interface {
	AppendRun(ctx context.Context, rec RunRecord) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
