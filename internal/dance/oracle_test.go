package dance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func stagedEntry(path string, ids ...string) *Entry {
	return &Entry{CatalogPath: path, LocalPath: path, CatalogIDs: ids, State: Staged}
}

func TestPollerWait(t *testing.T) {
	t.Run("absent on first poll", func(t *testing.T) {
		oracle := &fakeOracle{}
		p := NewPoller(oracle, 5, 300, testLogger())
		var sleeps int
		p.sleep = func(ctx context.Context, d time.Duration) error {
			sleeps++
			return nil
		}

		allAbsent, visible, err := p.Wait(context.Background(), nil, []*Entry{stagedEntry("/m/A/1", "11")})
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if !allAbsent || visible != 0 {
			t.Errorf("Wait() = (%v, %d), want (true, 0)", allAbsent, visible)
		}
		if oracle.checkCalls != 1 {
			t.Errorf("checks = %d, want 1", oracle.checkCalls)
		}
		if sleeps != 0 {
			t.Errorf("sleeps = %d, want 0", sleeps)
		}
	})

	t.Run("deterministic poll count on timeout", func(t *testing.T) {
		oracle := &fakeOracle{alwaysSeen: true}
		p := NewPoller(oracle, 5, 10, testLogger())
		p.sleep = instantSleep

		allAbsent, visible, err := p.Wait(context.Background(), nil, []*Entry{stagedEntry("/m/A/1", "11")})
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if allAbsent {
			t.Error("Wait() reported absence for an always-visible entry")
		}
		if visible != 1 {
			t.Errorf("visible = %d, want 1", visible)
		}
		if oracle.checkCalls != 2 {
			t.Errorf("checks = %d, want exactly 2 for interval 5 and max wait 10", oracle.checkCalls)
		}
	})

	t.Run("transient oracle error counts entry as visible", func(t *testing.T) {
		oracle := &fakeOracle{visibleErr: fmt.Errorf("connection refused")}
		p := NewPoller(oracle, 5, 300, testLogger())
		p.sleep = instantSleep

		// First round errors and keeps the entry visible; the second round
		// succeeds with the error cleared and sees it gone.
		allAbsent, _, err := p.Wait(context.Background(), nil, []*Entry{stagedEntry("/m/A/1", "11")})
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if !allAbsent {
			t.Error("Wait() should succeed once the oracle recovers")
		}
		if oracle.checkCalls != 2 {
			t.Errorf("checks = %d, want 2", oracle.checkCalls)
		}
	})

	t.Run("legacy entries use the listing fallback", func(t *testing.T) {
		oracle := &fakeOracle{indexed: []string{"/m/A/1"}}
		p := NewPoller(oracle, 5, 10, testLogger())
		p.sleep = instantSleep

		entries := []*Entry{stagedEntry("/m/A/1"), stagedEntry("/m/B/2")}
		allAbsent, visible, err := p.Wait(context.Background(), nil, entries)
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if allAbsent {
			t.Error("entry still in the listing should stay visible")
		}
		if visible != 1 {
			t.Errorf("visible = %d, want 1", visible)
		}
		if oracle.checkCalls != 0 {
			t.Errorf("id checks = %d, want 0 for legacy entries", oracle.checkCalls)
		}
		if oracle.listCalls != 2 {
			t.Errorf("list calls = %d, want one per round", oracle.listCalls)
		}
	})

	t.Run("cancellation during sleep returns the context error", func(t *testing.T) {
		oracle := &fakeOracle{alwaysSeen: true}
		p := NewPoller(oracle, 5, 300, testLogger())
		ctx, cancel := context.WithCancel(context.Background())
		p.sleep = func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}

		_, visible, err := p.Wait(ctx, nil, []*Entry{stagedEntry("/m/A/1", "11")})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Wait() error = %v, want context.Canceled", err)
		}
		if visible != 1 {
			t.Errorf("visible = %d, want 1 at interruption", visible)
		}
	})

	t.Run("nothing staged verifies immediately", func(t *testing.T) {
		oracle := &fakeOracle{alwaysSeen: true}
		p := NewPoller(oracle, 5, 300, testLogger())

		entries := []*Entry{{CatalogPath: "/m/A/1", State: Failed}}
		allAbsent, visible, err := p.Wait(context.Background(), nil, entries)
		if err != nil || !allAbsent || visible != 0 {
			t.Errorf("Wait() = (%v, %d, %v), want (true, 0, nil)", allAbsent, visible, err)
		}
		if oracle.checkCalls != 0 {
			t.Errorf("checks = %d, want 0", oracle.checkCalls)
		}
	})

	t.Run("restored entries are not polled", func(t *testing.T) {
		oracle := &fakeOracle{alwaysSeen: true}
		p := NewPoller(oracle, 5, 10, testLogger())
		p.sleep = instantSleep

		entries := []*Entry{
			stagedEntry("/m/A/1", "11"),
			{CatalogPath: "/m/B/2", CatalogIDs: []string{"22"}, State: Restored},
		}
		_, visible, err := p.Wait(context.Background(), nil, entries)
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if visible != 1 {
			t.Errorf("visible = %d, want 1 (only the staged entry)", visible)
		}
	})
}
