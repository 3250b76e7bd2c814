package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plexdance/internal/catalog"
	"github.com/desertthunder/plexdance/internal/formatter"
	"github.com/desertthunder/plexdance/internal/ui"
)

// Scan analyzes the music section's track index and reports directories the
// server has indexed inconsistently, in a form the dance command accepts.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	config, err := r.ensureConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openCache(cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	store := catalog.NewStore(db)

	opts := catalog.Options{
		Library:    cmd.String("library"),
		Refresh:    cmd.Bool("refresh"),
		CachedOnly: cmd.Bool("cached"),
	}
	if opts.Library == "" {
		opts.Library = config.Plex.Library
	}

	// A cached-only scan never needs the client.
	var source catalog.TrackSource
	if !opts.CachedOnly {
		client, err := r.ensureClient(cmd)
		if err != nil {
			return err
		}
		source = client
	}

	scanner := catalog.NewScanner(source, store, r.logger)
	report, err := scanner.Scan(ctx, opts)
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteScan(report, output, format)
		if err != nil {
			return err
		}
		r.writePlain("%s\n", ui.Check("Report written to "+path))
		return nil
	}

	data, err := formatter.RenderScan(report, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}
