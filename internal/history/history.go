// Package history keeps a linear undo/redo stack of document snapshots.
//
// State is a sequence S[0..n] and a cursor c in [0, n]. Commit truncates
// everything after the cursor and appends, so redo branches are discarded.
// Snapshots are immutable *document.Document values and are stored as-is.
package history

import (
	"sync"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/document"
)

// History is safe for concurrent use.
type History struct {
	mu        sync.RWMutex
	snapshots []*document.Document
	cursor    int
	limit     int
}

// Option configures a History.
type Option func(*History)

// WithLimit keeps at most n snapshots, dropping the oldest first.
// Values below 2 disable the limit.
func WithLimit(n int) Option {
	return func(h *History) {
		if n >= 2 {
			h.limit = n
		}
	}
}

// New creates a History whose only snapshot is initial.
func New(initial *document.Document, opts ...Option) *History {
	h := &History{snapshots: []*document.Document{initial}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Commit records doc as the snapshot after the cursor.
func (h *History) Commit(doc *document.Document) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.snapshots = append(h.snapshots[:h.cursor+1:h.cursor+1], doc)
	h.cursor++

	if h.limit > 0 && len(h.snapshots) > h.limit {
		drop := len(h.snapshots) - h.limit
		h.snapshots = append([]*document.Document(nil), h.snapshots[drop:]...)
		h.cursor -= drop
	}
}

// Undo moves the cursor back and returns the snapshot there.
func (h *History) Undo() (*document.Document, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor == 0 {
		return nil, blockerr.New(blockerr.CodeNothingToUndo, "already at the oldest snapshot")
	}
	h.cursor--
	return h.snapshots[h.cursor], nil
}

// Redo moves the cursor forward and returns the snapshot there.
func (h *History) Redo() (*document.Document, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor == len(h.snapshots)-1 {
		return nil, blockerr.New(blockerr.CodeNothingToRedo, "already at the newest snapshot")
	}
	h.cursor++
	return h.snapshots[h.cursor], nil
}

// Current returns the snapshot at the cursor.
func (h *History) Current() *document.Document {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshots[h.cursor]
}

func (h *History) CanUndo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cursor < len(h.snapshots)-1
}

// Len returns the number of retained snapshots.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.snapshots)
}

// Cursor returns the index of the current snapshot.
func (h *History) Cursor() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cursor
}

// Reset discards every snapshot and starts over from doc.
func (h *History) Reset(doc *document.Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshots = []*document.Document{doc}
	h.cursor = 0
}
