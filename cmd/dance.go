package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plexdance/internal/dance"
	"github.com/desertthunder/plexdance/internal/pathmap"
	"github.com/desertthunder/plexdance/internal/plex"
	"github.com/desertthunder/plexdance/internal/ui"
)

// Dance runs the relocate-verify-restore cycle over the input directories.
//
// Input comes from the file argument or stdin. The run is a dry run unless
// --no-dry-run is set. A termination signal cancels the run context; the
// engine aborts to the restore phase at its next checkpoint, and the deferred
// Recover call covers panics and normal exits alike. A second signal
// force-exits, leaving restore.log as the manual recovery path.
func (r *Runner) Dance(ctx context.Context, cmd *cli.Command) error {
	config, err := r.ensureConfig(cmd)
	if err != nil {
		return err
	}

	inputs, err := r.readDanceInput(cmd)
	if err != nil {
		return err
	}

	mappingValue := cmd.String("path-mapping")
	if mappingValue == "" {
		mappingValue = config.Dance.PathMapping
	}
	mapping, err := pathmap.Parse(mappingValue)
	if err != nil {
		return err
	}

	pollInterval := int(cmd.Int("poll-interval"))
	if pollInterval == 0 {
		pollInterval = config.Dance.PollInterval
	}
	maxWait := int(cmd.Int("max-wait"))
	if maxWait == 0 {
		maxWait = config.Dance.MaxWait
	}

	library := cmd.String("library")
	if library == "" {
		library = config.Plex.Library
	}

	dryRun := !cmd.Bool("no-dry-run")
	skipVerify := cmd.Bool("skip-verification")

	opts := dance.Options{
		Mapping:      mapping,
		PollInterval: pollInterval,
		MaxWait:      maxWait,
		DryRun:       dryRun,
		SkipVerify:   skipVerify,
		Logger:       r.logger,
	}

	// Verification and input validation both need the server; with
	// --skip-verification the run never contacts it and containment
	// checks are skipped.
	if !skipVerify {
		client, err := r.ensureClient(cmd)
		if err != nil {
			return err
		}
		section, err := client.MusicSection(ctx, library)
		if err != nil {
			return err
		}
		opts.LibraryRoots = section.LocationPaths()
		opts.Oracle = plex.NewVerifier(client, section.Key, r.logger)
	}

	engine := dance.NewEngine(opts)
	r.logger.Info("starting dance", "entries", len(inputs), "dry_run", dryRun, "run", engine.RunID())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigs)
		close(sigs)
	}()
	go func() {
		sig, ok := <-sigs
		if !ok {
			return
		}
		r.logger.Warn("signal received, restoring staged entries", "signal", sig)
		cancel()
		if sig, ok = <-sigs; ok {
			r.logger.Error("second signal, exiting without cleanup", "signal", sig)
			os.Exit(130)
		}
	}()

	// Recovery must run even when the action panics; the one-shot context
	// makes this a no-op after a completed run.
	defer engine.Recover()

	progress := make(chan dance.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, runErr := engine.Run(runCtx, progress, inputs)
	close(progress)
	wg.Wait()

	if cmd.Bool("json") {
		if err := r.writeJSON(result, true); err != nil {
			return err
		}
	} else {
		r.writeDanceSummary(result)
	}

	if runErr != nil {
		return runErr
	}
	if result.FailedCount > 0 || result.StuckCount > 0 {
		return fmt.Errorf("%d moves failed, %d entries stuck in staging", result.FailedCount, result.StuckCount)
	}
	return nil
}

// readDanceInput parses entries from the input file argument, or stdin when
// no argument was given.
func (r *Runner) readDanceInput(cmd *cli.Command) ([]dance.InputEntry, error) {
	if path := cmd.StringArg("input"); path != "" {
		return dance.ReadEntryFile(path)
	}
	r.logger.Debug("reading dance input from stdin")
	return dance.ReadEntries(os.Stdin)
}

// writeDanceSummary renders the per-entry outcomes and counters as a table.
func (r *Runner) writeDanceSummary(result *dance.Result) {
	rows := make([][]string, 0, len(result.Entries)+len(result.Excluded))
	for _, e := range result.Entries {
		rows = append(rows, []string{e.LocalPath, e.State.String(), e.Reason})
	}
	for _, e := range result.Excluded {
		rows = append(rows, []string{e.LocalPath, "excluded", e.Reason})
	}

	r.writePlain("\n%s\n", ui.Title("Dance summary"))
	r.writePlain("%s\n", ui.RenderTable(
		[]string{"Directory", "State", "Detail"},
		rows,
		[]ui.Alignment{ui.AlignLeft, ui.AlignLeft, ui.AlignLeft},
	))

	if result.DryRun {
		r.writePlain("%s\n", ui.Help("Dry run: nothing was moved. Pass --no-dry-run to execute."))
	}
	if result.TimedOut {
		r.writePlain("%s\n", ui.Warn("Verification timed out; directories were restored anyway."))
	}
	if result.VerifySkipped {
		r.writePlain("%s\n", ui.Help("Verification skipped; directories were restored immediately."))
	}
	if result.Interrupted {
		r.writePlain("%s\n", ui.Warn("Run was interrupted; staged directories were pulled back."))
	}

	line := fmt.Sprintf("%d planned, %d restored, %d failed, %d stuck, %d excluded",
		result.PlannedCount, result.RestoredCount, result.FailedCount, result.StuckCount, result.ExcludedCount)
	if result.StuckCount > 0 || result.FailedCount > 0 {
		r.writePlain("%s\n", ui.Cross(line))
	} else {
		r.writePlain("%s\n", ui.Check(line))
	}
}
