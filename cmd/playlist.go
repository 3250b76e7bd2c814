package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plexdance/internal/pathmap"
	"github.com/desertthunder/plexdance/internal/playlist"
	"github.com/desertthunder/plexdance/internal/shared"
	"github.com/desertthunder/plexdance/internal/ui"
)

// Playlist makes the named server playlist mirror a local M3U file.
func (r *Runner) Playlist(ctx context.Context, cmd *cli.Command) error {
	m3uPath := cmd.StringArg("m3u")
	if m3uPath == "" {
		return fmt.Errorf("%w: path to an M3U file", shared.ErrMissingArgument)
	}

	config, err := r.ensureConfig(cmd)
	if err != nil {
		return err
	}

	files, err := playlist.ReadM3U(m3uPath)
	if err != nil {
		return err
	}

	name := cmd.String("name")
	if name == "" {
		name = playlist.DefaultName(m3uPath)
	}

	mappingValue := cmd.String("path-mapping")
	if mappingValue == "" {
		mappingValue = config.Dance.PathMapping
	}
	mapping, err := pathmap.Parse(mappingValue)
	if err != nil {
		return err
	}

	library := cmd.String("library")
	if library == "" {
		library = config.Plex.Library
	}

	client, err := r.ensureClient(cmd)
	if err != nil {
		return err
	}
	section, err := client.MusicSection(ctx, library)
	if err != nil {
		return err
	}

	syncer := playlist.NewSyncer(client, mapping, r.logger)
	plan, err := syncer.Build(ctx, section.Key, name, files)
	if err != nil {
		return err
	}

	r.writePlain("%s\n", ui.Title("Playlist sync: "+plan.Name))
	r.writePlain("%d of %d files resolved to indexed tracks\n", plan.Resolved, len(files))
	for _, missing := range plan.Missing {
		r.writePlain("%s\n", ui.Cross(missing+" is not indexed by the server"))
	}
	r.writePlain("Action: %s\n", plan.Action)

	if cmd.Bool("dry-run") {
		r.writePlain("%s\n", ui.Help("Dry run: the server was not changed."))
		return nil
	}

	if err := syncer.Apply(ctx, plan); err != nil {
		return err
	}
	r.writePlain("%s\n", ui.Check(fmt.Sprintf("Playlist %q holds %d tracks", plan.Name, len(plan.TrackIDs))))
	return nil
}
