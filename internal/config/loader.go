package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "ATP_"
	envConfigPath = "ATP_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from path, or ATP_CONFIG when path is empty
//  3. env (prefix ATP_, "__" separates nested keys: ATP_FETCH__MAX_ATTEMPTS)
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envConfigPath {
			return ""
		}
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first problem found in c.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	u, err := url.Parse(c.Source.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("source.url %q is not an absolute URL", c.Source.URL)
	}
	switch c.Source.Kind {
	case SourceHTTP, SourceHeadless:
	default:
		return invalid("source.kind must be %q or %q, got %q", SourceHTTP, SourceHeadless, c.Source.Kind)
	}
	if strings.TrimSpace(c.Source.TableSelector) == "" {
		return invalid("source.table_selector must not be empty")
	}
	if c.Source.Timeout <= 0 || c.Source.RenderTimeout <= 0 {
		return invalid("source timeouts must be positive")
	}
	if c.Rows.MaxAge <= 0 {
		return invalid("rows.max_age must be positive")
	}
	if c.Fetch.MaxAttempts < 1 {
		return invalid("fetch.max_attempts must be at least 1")
	}
	if c.Fetch.BaseDelay < 0 || c.Fetch.MaxDelay < 0 {
		return invalid("fetch delays must not be negative")
	}
	if c.Fetch.AttemptTimeout <= 0 {
		return invalid("fetch.attempt_timeout must be positive")
	}
	if c.Dataset.Path == "" || c.Dataset.BackupDir == "" || c.Dataset.LastUpdatedPath == "" {
		return invalid("dataset.path, dataset.backup_dir and dataset.last_updated_path are required")
	}
	switch c.Dataset.TimestampFormat {
	case TimestampDateTime, TimestampDate:
	default:
		return invalid("dataset.timestamp_format must be %q or %q", TimestampDateTime, TimestampDate)
	}
	if c.Publish.Git.Enabled && c.Publish.Git.RepoDir == "" {
		return invalid("publish.git.repo_dir is required when git publishing is enabled")
	}
	if c.Publish.Slack.Token != "" && c.Publish.Slack.Channel == "" {
		return invalid("publish.slack.channel is required with a slack token")
	}
	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	if c.API.MaxLimit <= 0 {
		return invalid("api.max_limit must be positive")
	}
	return nil
}
