// Package repository caches parsed rosters per term.
package repository

import (
	"context"
	"time"

	"github.com/okian/attendboard/internal/domain/model"
)

// Roster is the parsed data for one term.
type Roster struct {
	Term      string
	Entries   []model.Entry
	FetchedAt time.Time
}

// Store provides read/write access to cached rosters.
type Store interface {
	// Get returns the cached roster for term or ErrNotFound.
	Get(ctx context.Context, term string) (Roster, error)

	// Put replaces the roster for r.Term.
	Put(ctx context.Context, r Roster) error

	// Invalidate drops term from the cache. It reports whether anything was dropped.
	Invalidate(ctx context.Context, term string) bool

	// Terms returns the cached term keys in ascending order.
	Terms(ctx context.Context) []string

	Len(ctx context.Context) int
}
