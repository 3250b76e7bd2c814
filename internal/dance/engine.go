// Package dance implements the relocate, verify, restore cycle that forces a
// media server to rebuild its metadata for a set of album directories.
//
// A run plans staging paths for every input directory, renames them into a
// staging root beside their library root, polls the server until it no longer
// lists them, and renames them back. Every rename is same-device and atomic,
// an executable recovery log is written before the first move, and a one-shot
// transaction context lets signal handlers and exit hooks share a single
// recovery path.
package dance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/plexdance/internal/pathmap"
	"github.com/desertthunder/plexdance/internal/shared"
)

// Options configures an Engine.
type Options struct {
	Mapping      *pathmap.Mapping // nil when server and local paths coincide
	LibraryRoots []string         // server-side library locations; empty disables containment checks
	Oracle       Oracle           // nil skips the verification phase
	PollInterval int              // seconds between verification polls
	MaxWait      int              // seconds before verification gives up
	DryRun       bool             // validate and report without touching the filesystem
	SkipVerify   bool             // restore immediately after staging
	DeviceCheck  DeviceCheck      // defaults to SameDevice
	Logger       *log.Logger
}

// Result summarizes a dance run. Entries carry their final states, so the
// counters are always recomputable via Tally.
type Result struct {
	Entries       []*Entry `json:"entries"`
	Excluded      []*Entry `json:"excluded,omitempty"`
	PlannedCount  int      `json:"planned"`
	ExcludedCount int      `json:"excluded_count"`
	PendingCount  int      `json:"pending"`
	FailedCount   int      `json:"failed"`
	RestoredCount int      `json:"restored"`
	StuckCount    int      `json:"stuck"`
	TimedOut      bool     `json:"timed_out"`
	VerifySkipped bool     `json:"verify_skipped"`
	Interrupted   bool     `json:"interrupted"`
	DryRun        bool     `json:"dry_run"`
}

// Tally recomputes the counters from entry states.
func (r *Result) Tally() {
	r.PlannedCount = len(r.Entries)
	r.ExcludedCount = len(r.Excluded)
	r.PendingCount, r.FailedCount, r.RestoredCount, r.StuckCount = 0, 0, 0, 0
	for _, e := range r.Entries {
		switch e.State {
		case Pending:
			r.PendingCount++
		case Failed:
			r.FailedCount++
		case Restored:
			r.RestoredCount++
		case StuckStaged:
			r.StuckCount++
		}
	}
}

// Engine orchestrates one dance run. The embedded transaction context is
// one-shot, so an Engine must not be reused across runs.
type Engine struct {
	planner  *Planner
	mover    *Mover
	restorer *Restorer
	poller   *Poller // nil when verification is skipped
	opts     Options
	tx       *TxContext
	logger   *log.Logger
	runID    string
}

// NewEngine wires an Engine from Options, filling in the default device check
// and logger when unset.
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	e := &Engine{
		planner:  &Planner{Mapping: opts.Mapping, LibraryRoots: opts.LibraryRoots},
		mover:    NewMover(opts.DeviceCheck, logger),
		restorer: NewRestorer(logger),
		opts:     opts,
		tx:       &TxContext{},
		logger:   logger,
		runID:    shared.GenerateID(),
	}
	if opts.Oracle != nil && !opts.SkipVerify {
		e.poller = NewPoller(opts.Oracle, opts.PollInterval, opts.MaxWait, logger)
	}
	return e
}

// RunID identifies this run in lock records, recovery logs, and log output.
func (e *Engine) RunID() string { return e.runID }

// Run executes the dance over inputs.
//
// Per-entry failures never abort the batch. The only fatal errors are an
// empty validated input set, a staging-root conflict, and a device mismatch
// at root creation, all of which happen before any rename. Cancelling ctx at
// any checkpoint skips ahead to the restore phase; the run then returns
// shared.ErrInterrupted once everything staged has been pulled back.
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate, inputs []InputEntry) (*Result, error) {
	result := &Result{DryRun: e.opts.DryRun}

	valid, excluded := e.planner.Validate(inputs)
	result.Excluded = excluded
	for i, ex := range excluded {
		e.logger.Warn("excluding entry", "path", ex.CatalogPath, "reason", ex.Reason)
		sendProgress(progress, planExcludedUpdate(i+1, len(excluded), ex))
	}
	if len(valid) == 0 {
		result.Tally()
		return result, fmt.Errorf("%w: no valid entries to process", shared.ErrInvalidInput)
	}

	groups := e.planner.Plan(valid)
	for _, g := range groups {
		result.Entries = append(result.Entries, g.Entries...)
	}
	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].Index < result.Entries[j].Index
	})
	e.logger.Info("planned run", "entries", len(result.Entries), "staging_roots", len(groups), "run", e.runID)

	if e.opts.DryRun {
		err := e.dryRun(groups, result, progress)
		result.Tally()
		return result, err
	}

	if err := e.acquireRoots(groups); err != nil {
		result.Tally()
		return result, err
	}

	e.stage(ctx, progress, result.Entries)
	e.verify(ctx, progress, result)

	restored, stuck, _ := e.finalize(progress)
	e.logger.Info("restore phase finished", "restored", restored, "stuck", stuck)

	result.Tally()
	sendProgress(progress, completeUpdate(result))

	if ctx.Err() != nil {
		result.Interrupted = true
		return result, fmt.Errorf("%w: staged entries were pulled back early", shared.ErrInterrupted)
	}
	return result, nil
}

// Recover restores anything still staged and cleans up staging roots. Safe to
// call from a deferred exit hook or a signal path at any time: only the first
// consumer of the transaction context performs filesystem work, so invoking
// it after a completed run, or twice, does nothing.
func (e *Engine) Recover() bool {
	restored, stuck, ok := e.finalize(nil)
	if !ok {
		return false
	}
	if restored > 0 || stuck > 0 {
		e.logger.Info("recovery finished", "restored", restored, "stuck", stuck)
	}
	return true
}

// acquireRoots claims every staging root before any rename, so a conflict or
// a root-level device mismatch aborts the run with zero moves performed.
// Each root's recovery log is written and synced here, ahead of the first
// rename under it.
func (e *Engine) acquireRoots(groups []*Group) error {
	fail := func(err error) error {
		e.finalize(nil)
		return err
	}

	for _, g := range groups {
		root, err := AcquireRoot(g.StagingDir, e.runID, e.logger)
		if err != nil {
			return fail(err)
		}
		root.Entries = g.Entries
		if !e.tx.Register(root) {
			root.Release()
			return fail(fmt.Errorf("%w: recovery already ran", shared.ErrInterrupted))
		}

		if !e.mover.sameDevice(g.Entries[0].LocalPath, root.Dir) {
			return fail(fmt.Errorf("%w: %s and staging directory %s", shared.ErrCrossDevice, g.Entries[0].LocalPath, root.Dir))
		}
		if err := root.WriteRecoveryLog(e.runID, g.Entries); err != nil {
			return fail(err)
		}
		e.logger.Debug("staging root ready", "dir", root.Dir, "entries", len(g.Entries))
	}
	return nil
}

// stage renames entries into staging in input order, checking for
// cancellation between entries so a signal strands at most the rename that
// was already in flight.
func (e *Engine) stage(ctx context.Context, progress chan<- ProgressUpdate, entries []*Entry) {
	total := len(entries)
	for i, entry := range entries {
		if ctx.Err() != nil {
			e.logger.Warn("interrupted, skipping remaining moves", "remaining", total-i)
			return
		}
		sendProgress(progress, stagingUpdate(i+1, total, entry))
		if err := e.mover.Stage(entry); err != nil {
			e.logger.Error("move failed", "path", entry.LocalPath, "error", err)
			sendProgress(progress, stageFailedUpdate(i+1, total, entry, err))
			continue
		}
		if !e.tx.RecordStaged(entry) {
			// Recovery consumed the context mid-rename; nobody else will
			// pull this entry back.
			if err := e.mover.Unstage(entry); err != nil {
				e.logger.Error("failed to undo in-flight move", "path", entry.StagingPath, "error", err)
			}
			return
		}
		sendProgress(progress, stagedUpdate(i+1, total, entry))
	}
}

// verify polls the oracle until every staged entry is absent from the server
// index, the wait budget runs out, or ctx is cancelled. With no oracle, no
// staged entries, or a cancelled ctx it returns immediately.
func (e *Engine) verify(ctx context.Context, progress chan<- ProgressUpdate, result *Result) {
	staged := 0
	for _, entry := range result.Entries {
		if entry.Visible() {
			staged++
		}
	}
	if staged == 0 {
		e.logger.Info("nothing staged, skipping verification")
		return
	}
	if ctx.Err() != nil {
		return
	}
	if e.poller == nil {
		result.VerifySkipped = true
		e.logger.Info("verification skipped, restoring immediately")
		return
	}

	allAbsent, visible, err := e.poller.Wait(ctx, progress, result.Entries)
	if err != nil {
		e.logger.Warn("verification interrupted", "error", err)
		return
	}
	if !allAbsent {
		result.TimedOut = true
		e.logger.Warn("server still lists entries, restoring anyway", "still_visible", visible)
	}
}

// finalize consumes the transaction context, restores everything staged, and
// cleans up staging roots. The normal flow, abort paths, and crash recovery
// all land here; one-shot consumption guarantees the work happens once.
//
// A root whose entries all made it home is deleted outright. A root with a
// stuck entry keeps its directory, lock record, and recovery log so the
// operator can finish the job by hand.
func (e *Engine) finalize(progress chan<- ProgressUpdate) (restored, stuck int, ok bool) {
	roots, staged, ok := e.tx.Take()
	if !ok {
		return 0, 0, false
	}

	total := len(staged)
	for i, entry := range staged {
		sendProgress(progress, restoringUpdate(i+1, total, entry))
		if err := e.restorer.Restore(entry); err != nil {
			if errors.Is(err, shared.ErrStagingMissing) {
				e.logger.Warn("staged directory gone, skipping restore",
					"staging_path", entry.StagingPath, "original", entry.LocalPath)
				continue
			}
			stuck++
			e.logger.Error("restore failed, entry remains staged",
				"staging_path", entry.StagingPath, "original", entry.LocalPath, "error", err)
			sendProgress(progress, restoreFailedUpdate(i+1, total, entry, err))
			continue
		}
		restored++
		sendProgress(progress, restoredUpdate(i+1, total, entry))
	}

	for _, root := range roots {
		if stuckIn(root) > 0 {
			root.Release()
			e.logger.Warn("staging directory kept for manual recovery", "dir", root.Dir, "recovery_log", root.LogPath)
			continue
		}
		if err := root.Remove(); err != nil {
			e.logger.Warn("failed to remove staging directory", "dir", root.Dir, "error", err)
		}
	}
	return restored, stuck, true
}

// dryRun reports planned staging paths, device checks, and staging-directory
// conflicts without mutating the filesystem. Entries failing a check are
// marked Failed so JSON output carries per-entry outcomes.
func (e *Engine) dryRun(groups []*Group, result *Result, progress chan<- ProgressUpdate) error {
	problems := len(result.Excluded)

	for _, g := range groups {
		if entries, err := os.ReadDir(g.StagingDir); err == nil {
			if leftover(entries) {
				e.logger.Error("staging directory holds files from a previous run", "dir", g.StagingDir)
				problems++
			} else {
				e.logger.Warn("empty staging directory exists, would be reclaimed", "dir", g.StagingDir)
			}
		}
	}

	total := len(result.Entries)
	for i, entry := range result.Entries {
		sendProgress(progress, planningUpdate(i+1, total, entry.LocalPath))
		if !e.mover.sameDevice(entry.LocalPath, entry.StagingPath) {
			entry.State = Failed
			entry.Reason = "staging path on a different device"
			problems++
			e.logger.Error("device check failed", "path", entry.LocalPath, "staging", entry.StagingPath)
			continue
		}
		e.logger.Info("would stage", "path", entry.LocalPath, "staging", entry.StagingPath)
	}

	if problems > 0 {
		return fmt.Errorf("%w: dry run found %d problems", shared.ErrInvalidInput, problems)
	}
	return nil
}

func stuckIn(root *StagingRoot) int {
	n := 0
	for _, e := range root.Entries {
		if e.State == StuckStaged {
			n++
		}
	}
	return n
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls the run.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
