package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plexdance/internal/shared"
	"github.com/desertthunder/plexdance/internal/ui"
)

// SetupConfig writes the annotated example config to the config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := shared.ExpandPath(cmd.String("config"))

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("%s\n", ui.Check("Config written to "+path))
	r.writePlainln("Next steps:")
	r.writePlain("1. Set plex.url and plex.token (or export PLEX_URL and PLEX_TOKEN)\n")
	r.writePlain("2. Run 'plexdance api /library/sections' to test the connection\n")
	return nil
}

// SetupCache creates the cache database and runs migrations.
func (r *Runner) SetupCache(ctx context.Context, cmd *cli.Command) error {
	config, err := r.ensureConfig(cmd)
	if err != nil {
		return err
	}

	path := shared.ExpandPath(config.Cache.Path)
	r.logger.Info("initializing cache database", "path", path)

	db, err := r.openCache(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	r.writePlain("%s\n", ui.Check("Cache database ready at "+path))
	return nil
}
