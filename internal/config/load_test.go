package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tickers != DefaultTickers {
		t.Fatalf("Tickers = %q", cfg.Tickers)
	}
	if cfg.Schedule.Timezone != DefaultTimezone {
		t.Fatalf("Timezone = %q", cfg.Schedule.Timezone)
	}
	if cfg.ResultsDir != DefaultResultsDir {
		t.Fatalf("ResultsDir = %q", cfg.ResultsDir)
	}
	if cfg.Email.Port != 587 {
		t.Fatalf("Email.Port = %d", cfg.Email.Port)
	}
	if cfg.Messaging.BaseURL == "" {
		t.Fatal("Messaging.BaseURL empty")
	}
	if cfg.Retention.MaxAgeDays != 30 || cfg.Retention.At != "03:30" {
		t.Fatalf("retention defaults = %d %q", cfg.Retention.MaxAgeDays, cfg.Retention.At)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
tickers: "GC=F, SI=F"
results_dir: /data/results
schedule:
  times: "09:30,15:30"
  timezone: America/New_York
  skip_weekends: true
engine:
  url: http://engine:8000
  timeout: 5m
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.TickerList(); len(got) != 2 || got[0] != "GC=F" || got[1] != "SI=F" {
		t.Fatalf("TickerList = %v", got)
	}
	if cfg.Schedule.Times != "09:30,15:30" || !cfg.Schedule.SkipWeekends {
		t.Fatalf("schedule = %+v", cfg.Schedule)
	}
	if cfg.Schedule.Timezone != "America/New_York" {
		t.Fatalf("timezone = %q", cfg.Schedule.Timezone)
	}
	if cfg.EngineTimeout() != 5*time.Minute {
		t.Fatalf("EngineTimeout = %v", cfg.EngineTimeout())
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	t.Setenv("TICKERD_TICKERS", "GC=F")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load with absent file: %v", err)
	}
	if cfg.Tickers != "GC=F" {
		t.Fatalf("Tickers = %q", cfg.Tickers)
	}
	if cfg.Schedule.Timezone != DefaultTimezone {
		t.Fatalf("Timezone = %q", cfg.Schedule.Timezone)
	}
}

func TestLoadUnreadableFileFails(t *testing.T) {
	// A path that exists but is a directory still fails loudly.
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for unreadable config path")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("tickers: \"GC=F\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TICKERD_TICKERS", "CL=F")
	t.Setenv("TICKERD_TIMEZONE", "UTC")
	t.Setenv("TICKERD_EMAIL_ENABLED", "yes")
	t.Setenv("TICKERD_EMAIL_TO", "a@example.com, b@example.com")
	t.Setenv("TICKERD_EMAIL_PORT", "465")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tickers != "CL=F" {
		t.Fatalf("Tickers = %q", cfg.Tickers)
	}
	if cfg.Schedule.Timezone != "UTC" {
		t.Fatalf("Timezone = %q", cfg.Schedule.Timezone)
	}
	if !cfg.Email.Enabled || cfg.Email.Port != 465 {
		t.Fatalf("email = %+v", cfg.Email)
	}
	if len(cfg.Email.To) != 2 || cfg.Email.To[1] != "b@example.com" {
		t.Fatalf("Email.To = %v", cfg.Email.To)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty tickers", func(c *Config) { c.Tickers = " " }},
		{"empty results dir", func(c *Config) { c.ResultsDir = "" }},
		{"empty timezone", func(c *Config) { c.Schedule.Timezone = "" }},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Not/AZone" }},
		{"bad engine timeout", func(c *Config) { c.Engine.Timeout = "fast" }},
		{"negative engine timeout", func(c *Config) { c.Engine.Timeout = "-3s" }},
		{"retention without days", func(c *Config) { c.Retention.Enabled = true; c.Retention.MaxAgeDays = 0 }},
		{"retention without at", func(c *Config) { c.Retention.Enabled = true; c.Retention.At = "" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	t.Parallel()
	for _, v := range []string{"1", "true", "TRUE", "yes", "on", " On "} {
		if !truthy(v) {
			t.Fatalf("truthy(%q) = false", v)
		}
	}
	for _, v := range []string{"0", "false", "no", "off", "", "2", "enabled"} {
		if truthy(v) {
			t.Fatalf("truthy(%q) = true", v)
		}
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()
	got := SplitList(" a, b ,, c ,")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if got := SplitList(""); got != nil {
		t.Fatalf("empty input = %v", got)
	}
}
