package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plexdance/internal/plex"
	"github.com/desertthunder/plexdance/internal/shared"
	tu "github.com/desertthunder/plexdance/internal/testing"
)

// newTestApp mirrors the root command main builds, with output captured.
func newTestApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name: "plexdance",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   shared.DefaultConfigPath(),
			},
		},
		Commands: runner.register(),
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register wires every command", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		commands := runner.register()

		want := []string{"dance", "scan", "playlist", "ratings", "api", "cache", "setup"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("command %d: expected %q, got %q", i, name, commands[i].Name)
			}
		}
	})
}

func TestRunnerOutput(t *testing.T) {
	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes compact JSON with newline", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"tracks": 3}, false); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if got := output.String(); got != "{\"tracks\":3}\n" {
				t.Errorf("unexpected output: %q", got)
			}
		})

		t.Run("propagates writer failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON(map[string]int{"tracks": 3}, false); err == nil {
				t.Error("expected error from failing writer")
			}
		})

		t.Run("fails on the trailing newline", func(t *testing.T) {
			limited := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limited})
			if err := runner.writeJSON("data", false); err == nil {
				t.Error("expected error when newline write fails")
			}
		})
	})

	t.Run("writePlain propagates writer failure", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := runner.writePlain("hello %s\n", "world"); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestEnsureConfig(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

		app := newTestApp(runner)
		app.Commands = append(app.Commands, &cli.Command{
			Name: "probe",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				_, err := runner.ensureConfig(cmd)
				return err
			},
		})

		missing := filepath.Join(t.TempDir(), "nope.toml")
		if err := app.Run(context.Background(), []string{"plexdance", "--config", missing, "probe"}); err != nil {
			t.Fatalf("expected defaults, got error: %v", err)
		}
		if runner.config == nil || runner.config.Dance.PollInterval == 0 {
			t.Error("expected embedded defaults to be loaded")
		}
	})

	t.Run("present file is loaded once", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := "[plex]\nurl = \"http://plex.local:32400\"\ntimeout_seconds = 10\nrequests_per_second = 2.0\n" +
			"[dance]\npoll_interval = 7\nmax_wait = 60\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		app := newTestApp(runner)
		app.Commands = append(app.Commands, &cli.Command{
			Name: "probe",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				_, err := runner.ensureConfig(cmd)
				return err
			},
		})

		if err := app.Run(context.Background(), []string{"plexdance", "--config", path, "probe"}); err != nil {
			t.Fatalf("config load failed: %v", err)
		}
		if runner.config.Dance.PollInterval != 7 {
			t.Errorf("expected poll_interval 7, got %d", runner.config.Dance.PollInterval)
		}
		if runner.config.Plex.URL != "http://plex.local:32400" {
			t.Errorf("unexpected url %q", runner.config.Plex.URL)
		}
	})
}

func TestAPICommand(t *testing.T) {
	t.Run("--curl prints a redacted command without sending", func(t *testing.T) {
		output := &bytes.Buffer{}
		config := shared.DefaultConfig()
		config.Plex.URL = "http://plex.local:32400"
		config.Plex.Token = "sekrit"

		client, err := plex.NewClient(config.Plex, nil, shared.NewLogger(nil))
		if err != nil {
			t.Fatal(err)
		}

		runner := NewRunner(RunnerOpts{Config: config, Client: client, Output: output})
		app := newTestApp(runner)

		if err := app.Run(context.Background(), []string{"plexdance", "api", "--curl", "/library/sections"}); err != nil {
			t.Fatalf("api --curl failed: %v", err)
		}

		got := output.String()
		if !strings.HasPrefix(got, "curl ") {
			t.Errorf("expected a curl command, got %q", got)
		}
		if !strings.Contains(got, "http://plex.local:32400/library/sections") {
			t.Errorf("expected the request URL in %q", got)
		}
		if strings.Contains(got, "sekrit") {
			t.Errorf("token leaked into output: %q", got)
		}
		if !strings.Contains(got, "REDACTED") {
			t.Errorf("expected redaction marker in %q", got)
		}
	})

	t.Run("missing path argument fails", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Output: &bytes.Buffer{}})
		app := newTestApp(runner)

		err := app.Run(context.Background(), []string{"plexdance", "api"})
		if err == nil {
			t.Error("expected missing-argument error")
		}
	})
}

func TestDanceCommand(t *testing.T) {
	// mustWriteFile creates path's parents and writes content.
	mustWriteFile := func(t *testing.T, path, content string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("dry run reports without moving", func(t *testing.T) {
		root := t.TempDir()
		album := filepath.Join(root, "Artist", "Album")
		track := filepath.Join(album, "01 Song.flac")
		mustWriteFile(t, track, "audio")

		input := filepath.Join(root, "input.txt")
		mustWriteFile(t, input, album+"\n")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})
		app := newTestApp(runner)

		missing := filepath.Join(root, "no-config.toml")
		err := app.Run(context.Background(), []string{
			"plexdance", "--config", missing, "dance", "--skip-verification", input,
		})
		if err != nil {
			t.Fatalf("dry run failed: %v", err)
		}

		tu.AssertFileExists(t, track)
		if _, err := os.Stat(filepath.Join(root, "tmp.plexdance")); !os.IsNotExist(err) {
			t.Error("dry run must not create the staging directory")
		}
		if !strings.Contains(output.String(), "Dry run") {
			t.Errorf("expected dry-run notice in output: %q", output.String())
		}
	})

	t.Run("skip-verification run stages and restores", func(t *testing.T) {
		root := t.TempDir()
		album := filepath.Join(root, "Artist", "Album")
		track := filepath.Join(album, "01 Song.flac")
		mustWriteFile(t, track, "audio")

		input := filepath.Join(root, "input.txt")
		mustWriteFile(t, input, album+"\t101\n")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})
		app := newTestApp(runner)

		missing := filepath.Join(root, "no-config.toml")
		err := app.Run(context.Background(), []string{
			"plexdance", "--config", missing, "dance", "--no-dry-run", "--skip-verification", input,
		})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		tu.AssertDirExists(t, album)
		if data := tu.MustReadFile(t, track); data != "audio" {
			t.Errorf("track content changed: %q", data)
		}
		if _, err := os.Stat(filepath.Join(root, "tmp.plexdance")); !os.IsNotExist(err) {
			t.Error("staging directory should be removed after a clean run")
		}
		if !strings.Contains(output.String(), "1 restored") {
			t.Errorf("expected restore count in summary: %q", output.String())
		}
	})

	t.Run("empty input fails before any mutation", func(t *testing.T) {
		root := t.TempDir()
		input := filepath.Join(root, "input.txt")
		if err := os.WriteFile(input, []byte("\n\n"), 0644); err != nil {
			t.Fatal(err)
		}

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		app := newTestApp(runner)

		missing := filepath.Join(root, "no-config.toml")
		err := app.Run(context.Background(), []string{
			"plexdance", "--config", missing, "dance", "--skip-verification", input,
		})
		if err == nil {
			t.Error("expected invalid-input error")
		}
	})
}

func TestCacheCommands(t *testing.T) {
	t.Run("status on an empty cache", func(t *testing.T) {
		root := t.TempDir()
		output := &bytes.Buffer{}

		config := shared.DefaultConfig()
		config.Cache.Path = filepath.Join(root, "cache.db")

		runner := NewRunner(RunnerOpts{Config: config, Output: output})
		app := newTestApp(runner)

		if err := app.Run(context.Background(), []string{"plexdance", "cache", "status"}); err != nil {
			t.Fatalf("cache status failed: %v", err)
		}
		if !strings.Contains(output.String(), "empty") {
			t.Errorf("expected empty-cache notice, got %q", output.String())
		}
	})

	t.Run("clear reports removed rows", func(t *testing.T) {
		root := t.TempDir()
		output := &bytes.Buffer{}

		config := shared.DefaultConfig()
		config.Cache.Path = filepath.Join(root, "cache.db")

		runner := NewRunner(RunnerOpts{Config: config, Output: output})
		app := newTestApp(runner)

		if err := app.Run(context.Background(), []string{"plexdance", "cache", "clear"}); err != nil {
			t.Fatalf("cache clear failed: %v", err)
		}
		if !strings.Contains(output.String(), "Removed 0 cached tracks") {
			t.Errorf("unexpected output: %q", output.String())
		}
	})
}

func TestSetupConfigCommand(t *testing.T) {
	t.Run("writes the example config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "conf", "config.toml")
		output := &bytes.Buffer{}

		runner := NewRunner(RunnerOpts{Output: output})
		app := newTestApp(runner)

		if err := app.Run(context.Background(), []string{"plexdance", "--config", path, "setup", "config"}); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "[plex]") {
			t.Error("expected the annotated example config")
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("# mine"), 0644); err != nil {
			t.Fatal(err)
		}

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		app := newTestApp(runner)

		if err := app.Run(context.Background(), []string{"plexdance", "--config", path, "setup", "config"}); err == nil {
			t.Error("expected error for existing config file")
		}
	})
}
