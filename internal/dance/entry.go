package dance

// EntryState tracks where an album directory currently lives during a run.
type EntryState int

const (
	// Pending means the entry is planned but its directory has not moved yet.
	Pending EntryState = iota
	// Staged means the directory sits under the staging root.
	Staged
	// Restored means the directory is back at its original location.
	Restored
	// Failed means the entry never left its original location.
	Failed
	// StuckStaged means the directory is in staging and restore failed.
	// Manual recovery via the restore log is required.
	StuckStaged
)

func (s EntryState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Staged:
		return "staged"
	case Restored:
		return "restored"
	case Failed:
		return "failed"
	case StuckStaged:
		return "stuck"
	default:
		return ""
	}
}

// Entry is one album directory participating in a dance run.
//
// CatalogPath is the path as the media server sees it; LocalPath is the same
// directory through the configured path mapping. The two are equal when no
// mapping is set.
type Entry struct {
	Index                int        // Position within the run, used for staging names
	CatalogPath          string     // Server-side directory path
	LocalPath            string     // Local filesystem directory path
	StagingPath          string     // Destination under the staging root
	CompanionPath        string     // AppleDouble sidecar beside LocalPath, if any
	StagingCompanionPath string     // Sidecar destination under the staging root
	CatalogIDs           []string   // Album rating keys for fast server-side lookup
	State                EntryState // Current lifecycle state
	Reason               string     // Populated when excluded, failed, or stuck
}

// Visible reports whether the server could still list this entry, meaning the
// entry made it into staging and has not been restored.
func (e *Entry) Visible() bool {
	return e.State == Staged
}
