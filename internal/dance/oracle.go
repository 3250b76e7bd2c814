package dance

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Oracle answers whether the media server still lists a staged directory.
// Implementations live at the transport layer; the poller only needs these
// two queries, so tests substitute a deterministic fake.
type Oracle interface {
	// IsVisible reports whether any of the ids under path is still indexed.
	// Callers only use it for entries that carry ids.
	IsVisible(ctx context.Context, path string, ids []string) (bool, error)

	// ListIndexedDirectories returns every album directory the server
	// currently indexes. Fallback for legacy entries without ids; strictly
	// slower than id lookup.
	ListIndexedDirectories(ctx context.Context) ([]string, error)
}

// Poller repeatedly asks an Oracle until every staged entry disappears from
// the server's index or the wait budget runs out.
//
// Elapsed time is counted in whole intervals rather than measured, so the
// number of polls for a given budget is deterministic: interval 5 with max
// wait 10 always checks exactly twice, at 0s and 5s.
type Poller struct {
	Oracle          Oracle
	IntervalSeconds int
	MaxWaitSeconds  int

	logger *log.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewPoller builds a Poller with a context-cancellable sleep.
func NewPoller(oracle Oracle, intervalSeconds, maxWaitSeconds int, logger *log.Logger) *Poller {
	if intervalSeconds <= 0 {
		intervalSeconds = 5
	}
	return &Poller{
		Oracle:          oracle,
		IntervalSeconds: intervalSeconds,
		MaxWaitSeconds:  maxWaitSeconds,
		logger:          logger,
		sleep:           sleepContext,
	}
}

// Wait polls until no staged entry is visible or MaxWaitSeconds elapses.
//
// Returns allAbsent and the count still visible at the last check. A timeout
// is an expected outcome, not an error; the only error returned is ctx
// cancellation during a sleep. Oracle failures during one round count the
// affected entries as "could not determine", reported and retried next round.
func (p *Poller) Wait(ctx context.Context, progress chan<- ProgressUpdate, entries []*Entry) (bool, int, error) {
	staged := 0
	for _, e := range entries {
		if e.Visible() {
			staged++
		}
	}
	if staged == 0 {
		return true, 0, nil
	}

	visible := staged
	polls := 0
	for elapsed := 0; elapsed < p.MaxWaitSeconds; elapsed += p.IntervalSeconds {
		polls++
		p.logger.Debug("checking server index", "poll", polls, "elapsed", elapsed)

		var err error
		visible, err = p.check(ctx, entries)
		if err != nil {
			p.logger.Warn("could not determine server state this round", "error", err)
		}
		if visible == 0 {
			sendProgress(progress, verifiedUpdate(polls, staged))
			p.logger.Info("server no longer lists staged entries", "polls", polls, "elapsed", elapsed)
			return true, 0, nil
		}

		sendProgress(progress, pollUpdate(polls, elapsed, p.MaxWaitSeconds, visible))
		if err := p.sleep(ctx, time.Duration(p.IntervalSeconds)*time.Second); err != nil {
			return false, visible, err
		}
	}

	sendProgress(progress, verifyTimeoutUpdate(polls, visible))
	p.logger.Info("verification timed out, proceeding to restore", "max_wait", p.MaxWaitSeconds, "still_visible", visible)
	return false, visible, nil
}

// check counts entries the server still lists. Entries with ids are looked up
// directly; the rest share one listing call and match on directory. An entry
// the oracle cannot answer for counts as visible this round.
func (p *Poller) check(ctx context.Context, entries []*Entry) (int, error) {
	var lastErr error
	visible := 0
	var legacy []*Entry

	for _, e := range entries {
		if !e.Visible() {
			continue
		}
		if len(e.CatalogIDs) == 0 {
			legacy = append(legacy, e)
			continue
		}
		seen, err := p.Oracle.IsVisible(ctx, e.CatalogPath, e.CatalogIDs)
		if err != nil {
			lastErr = err
			visible++
			continue
		}
		if seen {
			visible++
		}
	}

	if len(legacy) > 0 {
		dirs, err := p.Oracle.ListIndexedDirectories(ctx)
		if err != nil {
			return visible + len(legacy), err
		}
		indexed := make(map[string]bool, len(dirs))
		for _, d := range dirs {
			indexed[d] = true
		}
		for _, e := range legacy {
			if indexed[e.CatalogPath] {
				visible++
			}
		}
	}

	return visible, lastErr
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
