package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plexdance/internal/plex"
	"github.com/desertthunder/plexdance/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The config and Plex client are resolved lazily per action, so commands that
// never touch the server (setup, cache, cached scans) work without one.
type Runner struct {
	config     *shared.Config
	client     *plex.Client
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Client     *plex.Client
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		client:     opts.Client,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		danceCommand, scanCommand, playlistCommand, ratingsCommand, apiCommand, cacheCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ensureConfig loads configuration from the --config path the first time an
// action needs it. A missing file falls back to the embedded defaults plus
// environment overrides; a present-but-broken file is fatal.
func (r *Runner) ensureConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := shared.ExpandPath(cmd.String("config"))
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("no config file, using defaults", "path", path)
		config := shared.DefaultConfig()
		config.FromEnv()
		if err := config.Validate(); err != nil {
			return nil, err
		}
		r.config = config
		return r.config, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	r.config = config
	return r.config, nil
}

// ensureClient builds the Plex client on first use.
func (r *Runner) ensureClient(cmd *cli.Command) (*plex.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	config, err := r.ensureConfig(cmd)
	if err != nil {
		return nil, err
	}

	client, err := plex.NewClient(config.Plex, r.httpClient, r.logger)
	if err != nil {
		return nil, err
	}
	r.client = client
	return r.client, nil
}

// openCache opens the migrated cache database from config. The caller closes it.
func (r *Runner) openCache(cmd *cli.Command) (*sql.DB, error) {
	config, err := r.ensureConfig(cmd)
	if err != nil {
		return nil, err
	}

	db, err := shared.NewDatabase(shared.ExpandPath(config.Cache.Path))
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, config.Cache.MaxOpenConns, config.Cache.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
