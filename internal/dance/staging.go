package dance

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/desertthunder/plexdance/internal/shared"
)

// StagingRoot owns one staging directory for the duration of a run: the
// directory itself, its lock record, and its recovery log.
type StagingRoot struct {
	Dir     string   // the tmp.plexdance directory
	LogPath string   // recovery log inside Dir
	Entries []*Entry // entries planned into this root, set by the engine

	lock   *flock.Flock
	logger *log.Logger
}

// AcquireRoot creates and claims the staging directory at dir.
//
// A directory left behind by an earlier run with visible contents is a fatal
// conflict; if its recovery log survives, the error names it so the operator
// can replay the pending restores. A directory holding only hidden residue
// (stray AppleDouble files) is reclaimed silently. On success the lock record
// carries the owning PID, start time, and run id, and an advisory flock on it
// keeps a second live process out.
func AcquireRoot(dir, runID string, logger *log.Logger) (*StagingRoot, error) {
	if entries, err := os.ReadDir(dir); err == nil {
		if leftover(entries) {
			logPath := filepath.Join(dir, RecoveryLogName)
			if _, err := os.Stat(logPath); err == nil {
				return nil, fmt.Errorf("%w: %s holds files from a previous run; to restore them manually, run: bash %s",
					shared.ErrStagingConflict, dir, logPath)
			}
			return nil, fmt.Errorf("%w: %s already exists and is not empty", shared.ErrStagingConflict, dir)
		}
		logger.Debug("reclaiming stale staging directory", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("removing stale staging directory: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("inspecting staging directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}

	lockPath := filepath.Join(dir, LockFileName)
	record := fmt.Sprintf("PID: %d\nStarted: %s\nRun: %s\n",
		os.Getpid(), time.Now().Format("2006-01-02 15:04:05"), runID)
	if err := os.WriteFile(lockPath, []byte(record), 0o644); err != nil {
		return nil, fmt.Errorf("writing lock record: %w", err)
	}

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking staging directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s is locked by another process", shared.ErrStagingConflict, dir)
	}

	return &StagingRoot{
		Dir:     dir,
		LogPath: filepath.Join(dir, RecoveryLogName),
		lock:    lock,
		logger:  logger,
	}, nil
}

// leftover reports whether a previous run left visible content behind.
// The lock record and recovery log count: their presence means entries may
// still be stranded in staging.
func leftover(entries []os.DirEntry) bool {
	for _, e := range entries {
		if e.Name()[0] != '.' {
			return true
		}
	}
	return false
}

// WriteRecoveryLog writes the executable restore script for entries, one mv
// command per line, and syncs it to disk. Called before any rename so the
// script is durable even if the process dies mid-move.
func (r *StagingRoot) WriteRecoveryLog(runID string, entries []*Entry) error {
	f, err := os.OpenFile(r.LogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating recovery log: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "#!/bin/bash")
	fmt.Fprintf(f, "# Restore script for plexdance run %s\n", runID)
	fmt.Fprintf(f, "# Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	for _, e := range entries {
		fmt.Fprintf(f, "mv %s %s\n", shared.QuoteShell(e.StagingPath), shared.QuoteShell(e.LocalPath))
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing recovery log: %w", err)
	}
	return nil
}

// Release drops the advisory lock but leaves the directory, lock record, and
// recovery log in place. Used when stuck entries remain for the operator.
func (r *StagingRoot) Release() {
	if err := r.lock.Unlock(); err != nil {
		r.logger.Warn("failed to release staging lock", "dir", r.Dir, "error", err)
	}
}

// Remove releases the lock and deletes the staging directory with everything
// in it, including stray sidecar files. Used once every entry is back home.
func (r *StagingRoot) Remove() error {
	r.Release()
	if err := os.RemoveAll(r.Dir); err != nil {
		return fmt.Errorf("removing staging directory: %w", err)
	}
	return nil
}
