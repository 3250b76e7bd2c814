package dance

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/plexdance/internal/shared"
)

// Mover relocates entries into staging with atomic renames. It owns the
// Pending to Staged or Failed transition.
type Mover struct {
	sameDevice DeviceCheck
	logger     *log.Logger
}

// NewMover builds a Mover. check defaults to SameDevice when nil.
func NewMover(check DeviceCheck, logger *log.Logger) *Mover {
	if check == nil {
		check = SameDevice
	}
	return &Mover{sameDevice: check, logger: logger}
}

// Stage renames an entry's directory to its staging path.
//
// The source must still exist and share a device with the staging root, so
// the rename is atomic and the content is never in two places or neither.
// The AppleDouble sidecar follows best-effort; losing it never fails the
// entry. On any failure the entry is marked Failed and the source is left
// untouched.
func (m *Mover) Stage(entry *Entry) error {
	if err := m.stage(entry); err != nil {
		entry.State = Failed
		entry.Reason = err.Error()
		return err
	}
	entry.State = Staged
	return nil
}

func (m *Mover) stage(entry *Entry) error {
	if _, err := os.Stat(entry.LocalPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", shared.ErrSourceMissing, entry.LocalPath)
		}
		return fmt.Errorf("checking source: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(entry.StagingPath), 0o755); err != nil {
		return fmt.Errorf("creating staging parent: %w", err)
	}

	if !m.sameDevice(entry.LocalPath, entry.StagingPath) {
		return fmt.Errorf("%w: %s and %s", shared.ErrCrossDevice, entry.LocalPath, entry.StagingPath)
	}

	if err := os.Rename(entry.LocalPath, entry.StagingPath); err != nil {
		return fmt.Errorf("moving to staging: %w", err)
	}

	m.moveCompanion(entry.CompanionPath, entry.StagingCompanionPath)
	return nil
}

// Unstage undoes a completed staging rename. Used when recovery consumed the
// transaction context while this entry's rename was in flight.
func (m *Mover) Unstage(entry *Entry) error {
	if err := os.Rename(entry.StagingPath, entry.LocalPath); err != nil {
		entry.State = StuckStaged
		entry.Reason = err.Error()
		return fmt.Errorf("undoing staging move: %w", err)
	}
	m.moveCompanion(entry.StagingCompanionPath, entry.CompanionPath)
	entry.State = Failed
	entry.Reason = "interrupted before staging completed"
	return nil
}

// moveCompanion renames an AppleDouble sidecar alongside its entry. Sidecars
// are metadata only, so failures are logged and swallowed.
func (m *Mover) moveCompanion(from, to string) {
	if _, err := os.Stat(from); err != nil {
		return
	}
	if err := os.Rename(from, to); err != nil {
		m.logger.Warn("companion file move failed", "from", from, "to", to, "error", err)
	}
}
