package retention

import (
	"context"
	"testing"
	"time"

	"tickerd/pkg/logx"
)

func TestServiceStartDisabled(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: false}, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop(context.Background())
}

func TestServiceStartValidation(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, MaxAgeDays: 0, At: "03:30"}, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for max_age_days <= 0")
	}

	s = New(Config{Enabled: true, MaxAgeDays: 30, At: "25:99"}, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid sweep time")
	}
}

func TestServiceStartStop(t *testing.T) {
	t.Parallel()
	s := New(Config{
		Enabled:    true,
		ResultsDir: t.TempDir(),
		MaxAgeDays: 30,
		At:         "03:30",
		Location:   time.UTC,
	}, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop(context.Background())
	// Stop is idempotent.
	s.Stop(context.Background())
}
