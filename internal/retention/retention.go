// Package retention keeps the report tree bounded: a nightly cron job removes
// per-date report directories older than a configured age.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"tickerd/internal/schedule"
	"tickerd/pkg/logx"
)

// Config configures the sweep.
type Config struct {
	Enabled    bool
	ResultsDir string
	MaxAgeDays int

	// At is the HH:MM wall-clock time of the daily sweep.
	At string

	// Location is the schedule timezone; sweeps and age cutoffs use it.
	Location *time.Location
}

type Service struct {
	cfg Config
	log logx.Logger
	c   *cron.Cron
}

func New(cfg Config, log logx.Logger) *Service {
	return &Service{cfg: cfg, log: log}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Start registers and starts the daily sweep. No-op when disabled.
func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}
	if s.cfg.MaxAgeDays <= 0 {
		return fmt.Errorf("retention max_age_days must be > 0")
	}
	at, err := schedule.Parse(s.cfg.At)
	if err != nil {
		return fmt.Errorf("retention at: %w", err)
	}
	loc := s.cfg.Location
	if loc == nil {
		loc = time.Local
	}

	s.c = cron.New(cron.WithLocation(loc))
	spec := fmt.Sprintf("%d %d * * *", at.Minute, at.Hour)
	if _, err := s.c.AddFunc(spec, func() { s.sweep(ctx) }); err != nil {
		return err
	}
	s.c.Start()
	s.log.Info("retention sweep scheduled",
		logx.String("at", at.String()),
		logx.Int("max_age_days", s.cfg.MaxAgeDays),
		logx.String("tz", loc.String()))
	return nil
}

// Stop halts the cron runner, waiting for an in-flight sweep up to ctx.
func (s *Service) Stop(ctx context.Context) {
	if s.c == nil {
		return
	}
	done := s.c.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
	s.c = nil
}

func (s *Service) sweep(ctx context.Context) {
	loc := s.cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now().In(loc)
	cutoff := now.AddDate(0, 0, -s.cfg.MaxAgeDays)

	removed, err := Prune(ctx, s.cfg.ResultsDir, cutoff)
	if err != nil {
		s.log.Warn("retention sweep failed", logx.Err(err))
		return
	}
	s.log.Info("retention sweep finished",
		logx.Int("removed", removed),
		logx.String("cutoff", cutoff.Format("2006-01-02")))
}
