package config

// Config is the full tickerd configuration.
//
// It is built once by Load() and treated as read-only afterwards: components
// receive it (or a section of it) at construction and never mutate it.
//
// All durations are Go duration strings (e.g. "30s", "2m").
type Config struct {
	// Tickers is the comma-separated list of subjects analyzed per batch,
	// processed strictly in the configured order.
	Tickers string `yaml:"tickers"`

	// ResultsDir is the root of the on-disk report tree.
	ResultsDir string `yaml:"results_dir"`

	Schedule  ScheduleConfig  `yaml:"schedule"`
	Engine    EngineConfig    `yaml:"engine"`
	Email     EmailConfig     `yaml:"email"`
	Messaging MessagingConfig `yaml:"messaging"`
	History   HistoryConfig   `yaml:"history"`
	Retention RetentionConfig `yaml:"retention"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ScheduleConfig controls trigger behavior.
type ScheduleConfig struct {
	// Times is a comma-separated list of 24h HH:MM trigger times.
	// Malformed entries are skipped with a warning; the parsed set must be
	// non-empty for the scheduler to start.
	Times string `yaml:"times"`

	// Timezone is an IANA zone identifier (e.g. "Europe/Madrid").
	Timezone string `yaml:"timezone"`

	SkipWeekends bool `yaml:"skip_weekends"`
}

// EngineConfig points at the external analysis engine service.
type EngineConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	// Timeout bounds one engine call. "0s" (the default) means unbounded:
	// a hung engine call then blocks the whole scheduler.
	Timeout string `yaml:"timeout"`

	// Analysts is a comma-separated list forwarded to the engine.
	Analysts string `yaml:"analysts"`
}

// EmailConfig controls the per-subject email channel.
// Credentials are validated at send time, not here, so a disabled channel
// never requires a complete set.
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`

	// UseSSL selects implicit TLS on connect; otherwise STARTTLS is used.
	UseSSL bool `yaml:"use_ssl"`
}

// MessagingConfig controls the per-batch messaging-API channel.
// Same lazy validation discipline as EmailConfig.
type MessagingConfig struct {
	Enabled     bool     `yaml:"enabled"`
	AccessToken string   `yaml:"access_token"`
	SenderID    string   `yaml:"sender_id"`
	To          []string `yaml:"to"`

	// BaseURL overrides the API base (mainly for tests).
	BaseURL string `yaml:"base_url"`
}

// HistoryConfig controls the optional run-history store.
//
// Driver values:
//   - "file": append-only JSONL file
//   - "sqlite": SQLite database file (requires -tags sqlite)
//
// If Driver is empty or "none", history is disabled.
type HistoryConfig struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	BusyTimeout string `yaml:"busy_timeout"` // sqlite only
}

// RetentionConfig controls the nightly report-tree sweep.
type RetentionConfig struct {
	Enabled    bool   `yaml:"enabled"`
	MaxAgeDays int    `yaml:"max_age_days"`
	At         string `yaml:"at"` // HH:MM, schedule timezone
}

type LoggingConfig struct {
	Level   string      `yaml:"level"`
	Console bool        `yaml:"console"`
	File    LoggingFile `yaml:"file"`
}

type LoggingFile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}
