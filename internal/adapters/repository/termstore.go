package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/attendboard/internal/domain/model"
	"github.com/okian/attendboard/pkg/metrics"
)

// snapshot is an immutable view of the cache. Readers load it without locking.
type snapshot struct {
	rosters map[string]Roster
	order   []string // oldest Put first
}

// TermStore is an in-memory Store. Writers copy the current snapshot under a
// mutex and publish the copy atomically.
type TermStore struct {
	mu       sync.Mutex
	snap     atomic.Pointer[snapshot]
	maxTerms int
	now      func() time.Time
}

// NewTermStore creates an empty cache.
func NewTermStore(opts ...Option) *TermStore {
	s := &TermStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.snap.Store(&snapshot{rosters: map[string]Roster{}})
	return s
}

// Get returns a copy of the cached roster for term.
func (s *TermStore) Get(_ context.Context, term string) (Roster, error) {
	r, ok := s.snap.Load().rosters[term]
	if !ok {
		metrics.RecordCacheMiss()
		return Roster{}, fmt.Errorf("%w: %s", ErrNotFound, term)
	}
	metrics.RecordCacheHit()
	r.Entries = append([]model.Entry(nil), r.Entries...)
	return r, nil
}

// Put stores r, replacing any roster for the same term.
func (s *TermStore) Put(_ context.Context, r Roster) error {
	r.Term = strings.TrimSpace(r.Term)
	if r.Term == "" {
		return ErrInvalidTerm
	}
	if r.FetchedAt.IsZero() {
		r.FetchedAt = s.now()
	}
	r.Entries = append([]model.Entry(nil), r.Entries...)

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	next := &snapshot{rosters: make(map[string]Roster, len(cur.rosters)+1)}
	for k, v := range cur.rosters {
		next.rosters[k] = v
	}
	for _, k := range cur.order {
		if k != r.Term {
			next.order = append(next.order, k)
		}
	}
	next.rosters[r.Term] = r
	next.order = append(next.order, r.Term)

	for s.maxTerms > 0 && len(next.order) > s.maxTerms {
		delete(next.rosters, next.order[0])
		next.order = next.order[1:]
	}

	s.snap.Store(next)
	metrics.UpdateCacheTerms(len(next.rosters))
	return nil
}

// Invalidate drops term from the cache.
func (s *TermStore) Invalidate(_ context.Context, term string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	if _, ok := cur.rosters[term]; !ok {
		return false
	}
	next := &snapshot{rosters: make(map[string]Roster, len(cur.rosters))}
	for k, v := range cur.rosters {
		if k != term {
			next.rosters[k] = v
		}
	}
	for _, k := range cur.order {
		if k != term {
			next.order = append(next.order, k)
		}
	}

	s.snap.Store(next)
	metrics.RecordCacheInvalidation()
	metrics.UpdateCacheTerms(len(next.rosters))
	return true
}

// Terms returns cached term keys in ascending order.
func (s *TermStore) Terms(_ context.Context) []string {
	cur := s.snap.Load()
	out := make([]string, 0, len(cur.rosters))
	for k := range cur.rosters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached terms.
func (s *TermStore) Len(_ context.Context) int {
	return len(s.snap.Load().rosters)
}
