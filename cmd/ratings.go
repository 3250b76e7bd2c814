package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plexdance/internal/plex"
	"github.com/desertthunder/plexdance/internal/ui"
)

// Ratings lists every rated track and album in the music section and, with
// --no-dry-run, clears each rating. Per-item failures are reported and do
// not stop the batch.
func (r *Runner) Ratings(ctx context.Context, cmd *cli.Command) error {
	config, err := r.ensureConfig(cmd)
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

	var rated []plex.Metadata
	for _, itemType := range []int{plex.TypeAlbum, plex.TypeTrack} {
		items, err := client.RatedItems(ctx, section.Key, itemType)
		if err != nil {
			return err
		}
		rated = append(rated, items...)
	}

	if len(rated) == 0 {
		r.writePlain("%s\n", ui.Check("No rated tracks or albums found."))
		return nil
	}

	rows := make([][]string, 0, len(rated))
	for i := range rated {
		m := &rated[i]
		rows = append(rows, []string{m.Type, m.GrandparentTitle, m.ParentTitle, m.Title, fmt.Sprintf("%.1f", m.UserRating)})
	}
	r.writePlain("%s\n", ui.Title(fmt.Sprintf("Rated items in %s (%d)", section.Title, len(rated))))
	r.writePlain("%s\n", ui.RenderTable(
		[]string{"Type", "Artist", "Album", "Title", "Rating"},
		rows,
		[]ui.Alignment{ui.AlignLeft, ui.AlignLeft, ui.AlignLeft, ui.AlignLeft, ui.AlignRight},
	))

	if !cmd.Bool("no-dry-run") {
		r.writePlain("%s\n", ui.Help("Dry run: pass --no-dry-run to clear these ratings."))
		return nil
	}

	cleared, failed := 0, 0
	for i := range rated {
		m := &rated[i]
		if err := client.ClearRating(ctx, m.RatingKey); err != nil {
			failed++
			r.logger.Error("failed to clear rating", "key", m.RatingKey, "title", m.Title, "error", err)
			r.writePlain("%s\n", ui.Cross(m.Title))
			continue
		}
		cleared++
		r.writePlain("%s\n", ui.Check(m.Title))
	}

	r.writePlain("\n%d ratings cleared, %d failed\n", cleared, failed)
	if failed > 0 {
		return fmt.Errorf("failed to clear %d of %d ratings", failed, len(rated))
	}
	return nil
}
