package dance

import "fmt"

// ProgressUpdate represents a progress event during a long-running dance run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Run phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Run phase enumeration
type Phase int

const (
	Planning Phase = iota
	Staging
	Verifying
	Restoring
	Complete
)

func (p Phase) String() string {
	switch p {
	case Planning:
		return "planning"
	case Staging:
		return "staging"
	case Verifying:
		return "verifying"
	case Restoring:
		return "restoring"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func planningUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Planning,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Planning %s...", path),
	}
}

func planExcludedUpdate(step, total int, entry *Entry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Planning,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, entry.LocalPath, entry.Reason),
		Data:    entry,
	}
}

func stagingUpdate(step, total int, entry *Entry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Staging,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Moving %s...", step, total, entry.LocalPath),
		Data:    entry,
	}
}

func stagedUpdate(step, total int, entry *Entry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Staging,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, entry.LocalPath),
		Data:    entry,
	}
}

func stageFailedUpdate(step, total int, entry *Entry, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Staging,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, entry.LocalPath, err),
		Data:    entry,
	}
}

func pollUpdate(step int, elapsed, maxWait int, visible int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Verifying,
		Step:    step,
		Total:   0,
		Message: fmt.Sprintf("Waiting for server to register removals (%ds/%ds, %d still visible)...", elapsed, maxWait, visible),
	}
}

func verifiedUpdate(step int, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Verifying,
		Step:    step,
		Total:   0,
		Message: fmt.Sprintf("Server no longer lists %d staged albums", count),
	}
}

func verifyTimeoutUpdate(step int, visible int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Verifying,
		Step:    step,
		Total:   0,
		Message: fmt.Sprintf("Timed out with %d albums still visible, restoring anyway", visible),
	}
}

func restoringUpdate(step, total int, entry *Entry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Restoring,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Restoring %s...", step, total, entry.LocalPath),
		Data:    entry,
	}
}

func restoredUpdate(step, total int, entry *Entry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Restoring,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, entry.LocalPath),
		Data:    entry,
	}
}

func restoreFailedUpdate(step, total int, entry *Entry, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Restoring,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, entry.LocalPath, err),
		Data:    entry,
	}
}

func completeUpdate(result *Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Dance complete: %d restored, %d stuck, %d excluded", result.RestoredCount, result.StuckCount, result.ExcludedCount),
		Data:    result,
	}
}
