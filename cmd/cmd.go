// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// danceCommand runs the relocate-verify-restore cycle over input directories.
func danceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dance",
		Usage: "Move album directories out of the library, wait for Plex to notice, move them back",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "input"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path-mapping",
				Aliases: []string{"m"},
				Usage:   "Prefix mapping \"local_root:plex_root\" (overrides config)",
			},
			&cli.IntFlag{
				Name:  "poll-interval",
				Usage: "Seconds between verification polls (overrides config)",
			},
			&cli.IntFlag{
				Name:  "max-wait",
				Usage: "Ceiling in seconds on the verification wait (overrides config)",
			},
			&cli.StringFlag{
				Name:    "library",
				Aliases: []string{"l"},
				Usage:   "Music library section name (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "no-dry-run",
				Usage: "Actually move directories (default is a dry run)",
			},
			&cli.BoolFlag{
				Name:  "skip-verification",
				Usage: "Restore immediately after staging without polling the server",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Write the run result as JSON instead of a summary table",
			},
		},
		Action: r.Dance,
	}
}

// scanCommand inspects the server's track index for inconsistent directories.
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Report mixed directories and split albums, as dance input",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "library",
				Aliases: []string{"l"},
				Usage:   "Music library section name (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Refetch the track listing even when cached",
			},
			&cli.BoolFlag{
				Name:  "cached",
				Usage: "Analyze the cache only, without contacting the server",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, tsv, or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to a file instead of stdout",
			},
		},
		Action: r.Scan,
	}
}

// playlistCommand syncs an M3U file to a server playlist.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Make a Plex playlist match a local M3U file",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "m3u"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Playlist title (defaults to the M3U filename)",
			},
			&cli.StringFlag{
				Name:    "path-mapping",
				Aliases: []string{"m"},
				Usage:   "Prefix mapping \"local_root:plex_root\" (overrides config)",
			},
			&cli.StringFlag{
				Name:    "library",
				Aliases: []string{"l"},
				Usage:   "Music library section name (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show the sync plan without changing the server",
			},
		},
		Action: r.Playlist,
	}
}

// ratingsCommand lists and clears user ratings.
func ratingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ratings",
		Usage: "List rated tracks and albums and clear their ratings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "library",
				Aliases: []string{"l"},
				Usage:   "Music library section name (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "no-dry-run",
				Usage: "Actually clear ratings (default only lists them)",
			},
		},
		Action: r.Ratings,
	}
}

// apiCommand performs raw authenticated requests against the server.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Raw authenticated GET against the Plex server",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Compact JSON output",
			},
			&cli.BoolFlag{
				Name:  "curl",
				Usage: "Print the equivalent curl command instead of sending",
			},
		},
		Action: r.APIGet,
	}
}

// cacheCommand maintains the scan track cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Track cache maintenance",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show cached sections, row counts, and age",
				Action: r.CacheStatus,
			},
			{
				Name:   "clear",
				Usage:  "Drop every cached track row",
				Action: r.CacheClear,
			},
		},
	}
}

// setupCommand writes the starter config and initializes the cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "First-run setup",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the annotated example config to the config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "cache",
				Usage:  "Create the cache database and run migrations",
				Action: r.SetupCache,
			},
		},
	}
}
