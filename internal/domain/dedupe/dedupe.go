// Package dedupe remembers recent board event IDs so a retried submission
// is applied once.
package dedupe

import (
	"context"
	"sync"
)

// DefaultCapacity is the number of IDs remembered when none is configured.
const DefaultCapacity = 4096

// Deduper records seen event IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it
	// when it was not. Empty IDs are never recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a rejected submission can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int
}

// window is a fixed ring of IDs; the oldest is forgotten when it is full.
type window struct {
	mu   sync.Mutex
	ids  map[string]int // id -> slot in ring
	ring []string
	next int
}

// New creates a Deduper remembering the most recent IDs.
func New(opts ...Option) Deduper {
	cfg := config{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.capacity <= 0 {
		cfg.capacity = DefaultCapacity
	}
	return &window{
		ids:  make(map[string]int, cfg.capacity),
		ring: make([]string, cfg.capacity),
	}
}

func (w *window) SeenAndRecord(_ context.Context, id string) bool {
	if id == "" {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.ids[id]; ok {
		return true
	}
	if old := w.ring[w.next]; old != "" {
		delete(w.ids, old)
	}
	w.ring[w.next] = id
	w.ids[id] = w.next
	w.next = (w.next + 1) % len(w.ring)
	return false
}

func (w *window) Unrecord(_ context.Context, id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	slot, ok := w.ids[id]
	if !ok {
		return
	}
	delete(w.ids, id)
	w.ring[slot] = ""
}

func (w *window) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.ids)
}
