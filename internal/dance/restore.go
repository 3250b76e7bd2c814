package dance

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plexdance/internal/shared"
)

// Restorer returns staged entries to their original locations. It owns the
// Staged to Restored or StuckStaged transition.
type Restorer struct {
	logger *log.Logger
}

// NewRestorer builds a Restorer.
func NewRestorer(logger *log.Logger) *Restorer {
	return &Restorer{logger: logger}
}

// Restore renames an entry's staged directory back to its original path,
// recreating the original parent if the run removed it. An entry whose
// staged directory no longer exists reports shared.ErrStagingMissing and is
// left alone. A failed restore marks the entry StuckStaged: the content
// stays in staging and the recovery log remains the operator's way out.
func (r *Restorer) Restore(entry *Entry) error {
	if _, err := os.Stat(entry.StagingPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", shared.ErrStagingMissing, entry.StagingPath)
		}
		entry.State = StuckStaged
		entry.Reason = err.Error()
		return fmt.Errorf("checking staged directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(entry.LocalPath), 0o755); err != nil {
		entry.State = StuckStaged
		entry.Reason = err.Error()
		return fmt.Errorf("recreating original parent: %w", err)
	}

	if err := os.Rename(entry.StagingPath, entry.LocalPath); err != nil {
		entry.State = StuckStaged
		entry.Reason = err.Error()
		return fmt.Errorf("restoring from staging: %w", err)
	}

	if _, err := os.Stat(entry.StagingCompanionPath); err == nil {
		if err := os.Rename(entry.StagingCompanionPath, entry.CompanionPath); err != nil {
			r.logger.Warn("companion file restore failed", "from", entry.StagingCompanionPath, "error", err)
		}
	}

	entry.State = Restored
	entry.Reason = ""
	return nil
}
