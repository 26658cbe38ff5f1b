package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

// Defaults applied by Load when neither file nor environment set a value.
const (
	DefaultTickers    = "CL=F,EURUSD=X"
	DefaultTimezone   = "Europe/Madrid"
	DefaultResultsDir = "./results"

	defaultEmailPort        = 587
	defaultMessagingBaseURL = "https://graph.facebook.com/v20.0"
	defaultRetentionDays    = 30
	defaultRetentionAt      = "03:30"
)

// Load builds the immutable configuration in three layers:
//
//  1. defaults
//  2. optional YAML file (path may be empty; a missing file is treated as
//     absent so env-only deployments start without one)
//  3. environment variables (a .env file is merged first, best-effort)
//
// The returned Config is validated; a validation failure here is fatal to
// startup by design.
func Load(path string) (*Config, error) {
	// Merge .env into the process environment without overriding real env vars.
	_ = godotenv.Load()

	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Env-only deployments run without a config file.
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	c := &Config{
		Tickers:    DefaultTickers,
		ResultsDir: DefaultResultsDir,
	}
	c.Schedule.Timezone = DefaultTimezone
	c.Email.Port = defaultEmailPort
	c.Messaging.BaseURL = defaultMessagingBaseURL
	c.Retention.MaxAgeDays = defaultRetentionDays
	c.Retention.At = defaultRetentionAt
	c.Logging.Level = "INFO"
	c.Logging.Console = true
	return c
}

// applyEnv layers TICKERD_* environment variables over cfg.
func applyEnv(c *Config) {
	setStr(&c.Tickers, "TICKERD_TICKERS")
	setStr(&c.ResultsDir, "TICKERD_RESULTS_DIR")

	setStr(&c.Schedule.Times, "TICKERD_SCHEDULE_TIMES")
	setStr(&c.Schedule.Timezone, "TICKERD_TIMEZONE")
	setBool(&c.Schedule.SkipWeekends, "TICKERD_SKIP_WEEKENDS")

	setStr(&c.Engine.URL, "TICKERD_ENGINE_URL")
	setStr(&c.Engine.Token, "TICKERD_ENGINE_TOKEN")
	setStr(&c.Engine.Timeout, "TICKERD_ENGINE_TIMEOUT")
	setStr(&c.Engine.Analysts, "TICKERD_ENGINE_ANALYSTS")

	setBool(&c.Email.Enabled, "TICKERD_EMAIL_ENABLED")
	setStr(&c.Email.Host, "TICKERD_EMAIL_HOST")
	setInt(&c.Email.Port, "TICKERD_EMAIL_PORT")
	setStr(&c.Email.Username, "TICKERD_EMAIL_USERNAME")
	setStr(&c.Email.Password, "TICKERD_EMAIL_PASSWORD")
	setStr(&c.Email.From, "TICKERD_EMAIL_FROM")
	setList(&c.Email.To, "TICKERD_EMAIL_TO")
	setBool(&c.Email.UseSSL, "TICKERD_EMAIL_USE_SSL")

	setBool(&c.Messaging.Enabled, "TICKERD_MESSAGING_ENABLED")
	setStr(&c.Messaging.AccessToken, "TICKERD_MESSAGING_ACCESS_TOKEN")
	setStr(&c.Messaging.SenderID, "TICKERD_MESSAGING_SENDER_ID")
	setList(&c.Messaging.To, "TICKERD_MESSAGING_TO")
	setStr(&c.Messaging.BaseURL, "TICKERD_MESSAGING_BASE_URL")

	setStr(&c.History.Driver, "TICKERD_HISTORY_DRIVER")
	setStr(&c.History.Path, "TICKERD_HISTORY_PATH")
	setStr(&c.History.BusyTimeout, "TICKERD_HISTORY_BUSY_TIMEOUT")

	setBool(&c.Retention.Enabled, "TICKERD_RETENTION_ENABLED")
	setInt(&c.Retention.MaxAgeDays, "TICKERD_RETENTION_MAX_AGE_DAYS")
	setStr(&c.Retention.At, "TICKERD_RETENTION_AT")

	setStr(&c.Logging.Level, "TICKERD_LOG_LEVEL")
	setBool(&c.Logging.Console, "TICKERD_LOG_CONSOLE")
	setBool(&c.Logging.File.Enabled, "TICKERD_LOG_FILE_ENABLED")
	setStr(&c.Logging.File.Path, "TICKERD_LOG_FILE_PATH")
}

// Validate checks everything that must hold at startup. Channel credentials
// are deliberately NOT checked here; they are validated at send time so a
// disabled channel never requires a complete set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Tickers) == "" {
		return fmt.Errorf("tickers must not be empty")
	}
	if strings.TrimSpace(c.ResultsDir) == "" {
		return fmt.Errorf("results_dir must not be empty")
	}
	tz := strings.TrimSpace(c.Schedule.Timezone)
	if tz == "" {
		return fmt.Errorf("schedule.timezone is required")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("schedule.timezone: invalid %q: %w", tz, err)
	}
	if _, err := parseDurationField("engine.timeout", c.Engine.Timeout); err != nil {
		return err
	}
	if _, err := parseDurationField("history.busy_timeout", c.History.BusyTimeout); err != nil {
		return err
	}
	if c.Retention.Enabled {
		if c.Retention.MaxAgeDays <= 0 {
			return fmt.Errorf("retention.max_age_days must be > 0 when retention is enabled")
		}
		if strings.TrimSpace(c.Retention.At) == "" {
			return fmt.Errorf("retention.at is required when retention is enabled")
		}
	}
	return nil
}

// TickerList returns the configured subjects, trimmed, in order.
func (c *Config) TickerList() []string { return SplitList(c.Tickers) }

// AnalystList returns the configured analyst identifiers for the engine.
func (c *Config) AnalystList() []string { return SplitList(c.Engine.Analysts) }

// EngineTimeout returns the parsed engine call timeout (0 = unbounded).
// Validate() guarantees this parses.
func (c *Config) EngineTimeout() time.Duration {
	d, _ := parseDurationField("engine.timeout", c.Engine.Timeout)
	return d
}

// HistoryBusyTimeout returns the parsed sqlite busy timeout.
func (c *Config) HistoryBusyTimeout() time.Duration {
	d, _ := parseDurationField("history.busy_timeout", c.History.BusyTimeout)
	return d
}

// SplitList splits a comma-separated value, trimming whitespace and dropping
// empty items.
func SplitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func parseDurationField(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must be >= 0", key)
	}
	return d, nil
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = SplitList(v)
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = truthy(v)
	}
}

// truthy matches the accepted enable-flag spellings: 1/true/yes/on.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
