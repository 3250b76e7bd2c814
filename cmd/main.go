package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plexdance/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:    "plexdance",
		Usage:   "Force Plex to re-index album directories by moving them out and back",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   shared.DefaultConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("%v", err)
	}
}
