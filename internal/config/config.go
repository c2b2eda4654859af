// Package config defines the ingest job configuration and its loading hooks.
//
// Conventions:
//   - New() builds a Config with defaults; Load layers file and env on top.
//   - Paths are explicit configuration; nothing depends on the working directory.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"time"
)

// Source kinds understood by the fetch pipeline.
const (
	SourceHTTP     = "http"
	SourceHeadless = "headless"
)

// Timestamp formats for the last-updated record.
const (
	TimestampDateTime = "datetime"
	TimestampDate     = "date"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the read-only API listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	Source  Source  `koanf:"source"`
	Rows    Rows    `koanf:"rows"`
	Fetch   Fetch   `koanf:"fetch"`
	Dataset Dataset `koanf:"dataset"`
	Publish Publish `koanf:"publish"`
	Metrics Metrics `koanf:"metrics"`
	API     API     `koanf:"api"`
}

// Source describes where and how the ranking page is loaded.
type Source struct {
	URL           string `koanf:"url"`
	Kind          string `koanf:"kind"`
	TableSelector string `koanf:"table_selector"`
	UserAgent     string `koanf:"user_agent"`
	// Timeout bounds a plain HTTP request.
	Timeout time.Duration `koanf:"timeout"`
	// RenderTimeout bounds the wait for table rows in headless mode.
	RenderTimeout time.Duration `koanf:"render_timeout"`
	// SettleDelay is slept after navigation before waiting for rows.
	SettleDelay      time.Duration `koanf:"settle_delay"`
	ChromePath       string        `koanf:"chrome_path"`
	CloudflareBypass bool          `koanf:"cloudflare_bypass"`
}

// Rows tunes row acceptance.
type Rows struct {
	// MaxConsecutiveInvalid stops the scan once the valid region has started
	// and this many invalid rows follow in a row. Zero or less disables it.
	MaxConsecutiveInvalid int `koanf:"max_consecutive_invalid"`
	MaxAge                int `koanf:"max_age"`
}

// Fetch bounds the retry loop.
type Fetch struct {
	MaxAttempts    int           `koanf:"max_attempts"`
	BaseDelay      time.Duration `koanf:"base_delay"`
	MaxDelay       time.Duration `koanf:"max_delay"`
	AttemptTimeout time.Duration `koanf:"attempt_timeout"`
}

// Dataset holds every path the merger touches.
type Dataset struct {
	Path            string `koanf:"path"`
	BackupDir       string `koanf:"backup_dir"`
	ArchiveDir      string `koanf:"archive_dir"`
	LastUpdatedPath string `koanf:"last_updated_path"`
	TimestampFormat string `koanf:"timestamp_format"`
}

// Publish lists the optional publishers. A publisher with an empty key field
// (bucket, token, addr, dsn) is disabled.
type Publish struct {
	Git      Git      `koanf:"git"`
	S3       S3       `koanf:"s3"`
	GCS      GCS      `koanf:"gcs"`
	Slack    Slack    `koanf:"slack"`
	Redis    Redis    `koanf:"redis"`
	Postgres Postgres `koanf:"postgres"`
}

type Git struct {
	Enabled bool     `koanf:"enabled"`
	RepoDir string   `koanf:"repo_dir"`
	Remote  string   `koanf:"remote"`
	Branch  string   `koanf:"branch"`
	Paths   []string `koanf:"paths"`

	// Token authenticates HTTPS pushes. Empty uses the remote's own auth.
	Token       string `koanf:"token"`
	AuthorName  string `koanf:"author_name"`
	AuthorEmail string `koanf:"author_email"`
}

type S3 struct {
	Bucket string `koanf:"bucket"`
	Region string `koanf:"region"`
	Prefix string `koanf:"prefix"`
}

type GCS struct {
	Bucket string `koanf:"bucket"`
	Prefix string `koanf:"prefix"`
}

type Slack struct {
	Token   string `koanf:"token"`
	Channel string `koanf:"channel"`
	APIURL  string `koanf:"api_url"`
}

type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Channel  string `koanf:"channel"`
}

type Postgres struct {
	DSN   string `koanf:"dsn"`
	Table string `koanf:"table"`
}

// Metrics configures the optional Pushgateway push at the end of a run.
type Metrics struct {
	PushgatewayURL string `koanf:"pushgateway_url"`
	JobName        string `koanf:"job_name"`
}

// API configures the read-only dataset API.
type API struct {
	// MaxLimit caps GET /leaderboard?limit.
	MaxLimit int `koanf:"max_limit"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",
		Source: Source{
			URL:           "https://live-tennis.eu/en/atp-live-ranking",
			Kind:          SourceHTTP,
			TableSelector: "table.restable tr",
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			Timeout:       30 * time.Second,
			RenderTimeout: 30 * time.Second,
			SettleDelay:   3 * time.Second,
		},
		Rows: Rows{
			MaxConsecutiveInvalid: 25,
			MaxAge:                99,
		},
		Fetch: Fetch{
			MaxAttempts:    3,
			BaseDelay:      5 * time.Second,
			MaxDelay:       time.Minute,
			AttemptTimeout: 90 * time.Second,
		},
		Dataset: Dataset{
			Path:            "data/atp_rankings.csv",
			BackupDir:       "data/backups",
			LastUpdatedPath: "data/last_updated.txt",
			TimestampFormat: TimestampDateTime,
		},
		Publish: Publish{
			Git: Git{
				Remote:      "origin",
				Branch:      "main",
				AuthorName:  "atp",
				AuthorEmail: "atp@localhost",
			},
			S3:       S3{Region: "us-east-1", Prefix: "atp"},
			GCS:      GCS{Prefix: "atp"},
			Redis:    Redis{Channel: "atp.rankings.updated"},
			Postgres: Postgres{Table: "atp_rankings"},
		},
		Metrics: Metrics{
			JobName: "atp_ingest",
		},
		API: API{
			MaxLimit: 500,
		},
	}
}

// TimestampLayout returns the Go time layout for the last-updated record.
func (d Dataset) TimestampLayout() string {
	if d.TimestampFormat == TimestampDate {
		return time.DateOnly
	}
	return time.DateTime
}
