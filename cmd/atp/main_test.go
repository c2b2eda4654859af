package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/alexberlino/atp/internal/app"
	"github.com/alexberlino/atp/internal/config"
	"github.com/alexberlino/atp/internal/domain/fetch"
)

func rankingPage() string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="restable"><tr><th>#</th></tr>`)
	players := []struct {
		name    string
		age     int
		country string
		points  string
	}{
		{"Jannik Sinner", 23, "ITA", "11,830"},
		{"Alexander Zverev", 27, "GER", "7,915"},
		{"Carlos Alcaraz", 21, "ESP", "7,010"},
	}
	for i, p := range players {
		fmt.Fprintf(&b, `<tr><td>%d</td><td></td><td></td><td>%s</td><td>%d</td><td>%s</td><td>%s</td><td>-</td></tr>`,
			i+1, p.name, p.age, p.country, p.points)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

func writeConfig(dir, body string) string {
	path := filepath.Join(dir, "atp.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		panic(err)
	}
	return path
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	convey.Convey("Given command errors", t, func() {
		convey.So(exitCode(nil), convey.ShouldEqual, exitOK)
		convey.So(exitCode(fmt.Errorf("%w: bad", config.ErrInvalidConfig)), convey.ShouldEqual, exitConfig)
		convey.So(exitCode(fmt.Errorf("%w: read", config.ErrLoadConfig)), convey.ShouldEqual, exitConfig)
		convey.So(exitCode(fmt.Errorf("%w: slack down", service.ErrPublish)), convey.ShouldEqual, exitPublish)
		convey.So(exitCode(fmt.Errorf("%w after 3 attempts", fetch.ErrExhausted)), convey.ShouldEqual, exitFailure)
		convey.So(exitCode(errors.New("anything else")), convey.ShouldEqual, exitFailure)
	})
}

func TestRunAndShow(t *testing.T) {
	convey.Convey("Given a config pointing at a local ranking page", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(rankingPage()))
		}))
		defer srv.Close()

		dir := t.TempDir()
		cfgPath := writeConfig(dir, fmt.Sprintf(`
log_level: error
source:
  url: %s
fetch:
  base_delay: 1ms
  max_delay: 1ms
dataset:
  path: %s
  backup_dir: %s
  last_updated_path: %s
`, srv.URL,
			filepath.Join(dir, "atp_rankings.csv"),
			filepath.Join(dir, "backups"),
			filepath.Join(dir, "last_updated.txt")))

		convey.Convey("When showing before any run", func() {
			_, err := execute("--config", cfgPath, "show")

			convey.Convey("Then it reports the missing dataset", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(exitCode(err), convey.ShouldEqual, exitFailure)
			})
		})

		convey.Convey("When running once", func() {
			out, err := execute("--config", cfgPath, "run", "--print")

			convey.Convey("Then the dataset is created and the sample printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "created, 3 entries")
				convey.So(out, convey.ShouldContainSubstring, "Jannik Sinner")
				_, statErr := os.Stat(filepath.Join(dir, "atp_rankings.csv"))
				convey.So(statErr, convey.ShouldBeNil)
			})

			convey.Convey("And show renders the leading entries", func() {
				out, err := execute("--config", cfgPath, "show", "--limit", "2")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Alexander Zverev")
				convey.So(out, convey.ShouldNotContainSubstring, "Carlos Alcaraz")
				convey.So(out, convey.ShouldContainSubstring, "last updated")
			})

			convey.Convey("And a second run leaves the dataset unchanged", func() {
				out, err := execute("--config", cfgPath, "run")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "unchanged")
			})
		})
	})
}

func TestConfigErrors(t *testing.T) {
	convey.Convey("Given an invalid config file", t, func() {
		cfgPath := writeConfig(t.TempDir(), "source:\n  kind: ftp\n")

		convey.Convey("Then every configured command exits with the config code", func() {
			_, err := execute("--config", cfgPath, "run")
			convey.So(exitCode(err), convey.ShouldEqual, exitConfig)
		})
	})

	convey.Convey("Given a missing config file", t, func() {
		_, err := execute("--config", filepath.Join(t.TempDir(), "absent.yaml"), "show")
		convey.So(exitCode(err), convey.ShouldEqual, exitConfig)
	})
}

func TestVersion(t *testing.T) {
	convey.Convey("Given the version command", t, func() {
		out, err := execute("--config", "/nonexistent/atp.yaml", "version")

		convey.Convey("Then it prints without loading configuration", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "atp dev")
		})
	})
}
