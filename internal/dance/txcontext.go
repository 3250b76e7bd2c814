package dance

import "sync"

// TxContext tracks the staging roots and staged entries of an in-flight run
// so recovery can undo them. It is the only state shared with asynchronous
// termination paths, so every access is mutex-guarded and consumption is
// one-shot: the first Take wins and later callers get nothing.
type TxContext struct {
	mu       sync.Mutex
	consumed bool
	roots    []*StagingRoot
	staged   []*Entry
}

// Register records an acquired staging root for cleanup. Returns false when
// the context was already consumed, in which case the caller must not proceed.
func (tx *TxContext) Register(root *StagingRoot) bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.consumed {
		return false
	}
	tx.roots = append(tx.roots, root)
	return true
}

// RecordStaged records that an entry's rename into staging completed.
//
// A false return means recovery consumed the context while the rename was in
// flight; the caller must undo the rename because nobody else will.
func (tx *TxContext) RecordStaged(e *Entry) bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.consumed {
		return false
	}
	tx.staged = append(tx.staged, e)
	return true
}

// Take consumes the context, returning everything registered so far. Only the
// first call returns ok; subsequent calls see an empty, spent context, which
// is what makes recovery idempotent.
func (tx *TxContext) Take() (roots []*StagingRoot, staged []*Entry, ok bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.consumed {
		return nil, nil, false
	}
	tx.consumed = true
	roots, staged = tx.roots, tx.staged
	tx.roots, tx.staged = nil, nil
	return roots, staged, true
}
