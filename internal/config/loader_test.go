package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexberlino/atp/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Dataset.Path, convey.ShouldEqual, "data/atp_rankings.csv")
				convey.So(cfg.Fetch.BaseDelay, convey.ShouldEqual, 5*time.Second)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ATP_ADDR", ":8080")
			_ = os.Setenv("ATP_FETCH__MAX_ATTEMPTS", "5")
			_ = os.Setenv("ATP_FETCH__BASE_DELAY", "250ms")
			_ = os.Setenv("ATP_SOURCE__KIND", "headless")
			_ = os.Setenv("ATP_PUBLISH__GIT__ENABLED", "true")
			_ = os.Setenv("ATP_PUBLISH__GIT__REPO_DIR", "/srv/atp")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then env vars override defaults, including nested keys", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Fetch.MaxAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.Fetch.BaseDelay, convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.Fetch.MaxDelay, convey.ShouldEqual, time.Minute)
				convey.So(cfg.Source.Kind, convey.ShouldEqual, config.SourceHeadless)
				convey.So(cfg.Publish.Git.Enabled, convey.ShouldBeTrue)
				convey.So(cfg.Publish.Git.RepoDir, convey.ShouldEqual, "/srv/atp")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
log_level: debug
source:
  url: https://example.org/ranking
  render_timeout: 10s
dataset:
  path: /tmp/atp/ranking.csv
  backup_dir: /tmp/atp/backups
  timestamp_format: date
publish:
  s3:
    bucket: rankings
`)
			_ = os.Setenv("ATP_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then file values are layered over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Source.URL, convey.ShouldEqual, "https://example.org/ranking")
				convey.So(cfg.Source.RenderTimeout, convey.ShouldEqual, 10*time.Second)
				convey.So(cfg.Source.Timeout, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.Dataset.BackupDir, convey.ShouldEqual, "/tmp/atp/backups")
				convey.So(cfg.Dataset.LastUpdatedPath, convey.ShouldEqual, "data/last_updated.txt")
				convey.So(cfg.Dataset.TimestampFormat, convey.ShouldEqual, config.TimestampDate)
				convey.So(cfg.Publish.S3.Bucket, convey.ShouldEqual, "rankings")
				convey.So(cfg.Publish.S3.Region, convey.ShouldEqual, "us-east-1")
			})

			convey.Convey("Then env still wins over the file", func() {
				_ = os.Setenv("ATP_LOG_LEVEL", "warn")
				cfg, err := config.Load(ctx, "")
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
			})
		})

		convey.Convey("When an explicit path is given", func() {
			path := writeConfigFile(t, "addr: \":7070\"\n")
			cfg, err := config.Load(ctx, path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
		})

		convey.Convey("When the config file does not exist", func() {
			_, err := config.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the YAML is malformed", func() {
			path := writeConfigFile(t, "source: [unterminated\n")
			_, err := config.Load(ctx, path)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a loaded value fails validation", func() {
			_ = os.Setenv("ATP_FETCH__MAX_ATTEMPTS", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx, "")
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				key := kv[:i]
				if len(key) > 4 && key[:4] == "ATP_" {
					_ = os.Unsetenv(key)
				}
				break
			}
		}
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "atp.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
