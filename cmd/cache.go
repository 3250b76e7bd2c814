package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plexdance/internal/catalog"
	"github.com/desertthunder/plexdance/internal/ui"
)

// CacheStatus reports cached sections, row counts, and age.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	statuses, err := catalog.NewStore(db).Status()
	if err != nil {
		return err
	}

	if len(statuses) == 0 {
		r.writePlain("Track cache is empty. Run 'plexdance scan' to populate it.\n")
		return nil
	}

	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		rows = append(rows, []string{
			st.SectionKey,
			fmt.Sprint(st.Tracks),
			st.CachedAt.Local().Format(time.RFC822),
		})
	}
	r.writePlain("%s\n", ui.RenderTable(
		[]string{"Section", "Tracks", "Cached at"},
		rows,
		[]ui.Alignment{ui.AlignLeft, ui.AlignRight, ui.AlignLeft},
	))
	return nil
}

// CacheClear drops every cached track row.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := catalog.NewStore(db).Clear()
	if err != nil {
		return err
	}

	r.logger.Info("cache cleared", "rows", n)
	r.writePlain("%s\n", ui.Check(fmt.Sprintf("Removed %d cached tracks", n)))
	return nil
}
