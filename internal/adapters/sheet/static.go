package sheet

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/attendboard/internal/domain/model"
)

// StaticSource serves fixed tables, e.g. for demos and tests.
type StaticSource struct {
	mu     sync.Mutex
	tables map[string]model.RawTable
	errs   map[string]error
	calls  map[string]int
}

// NewStaticSource creates an empty StaticSource.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		tables: map[string]model.RawTable{},
		errs:   map[string]error{},
		calls:  map[string]int{},
	}
}

// Set serves table for term.
func (s *StaticSource) Set(term string, table model.RawTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[term] = table
	delete(s.errs, term)
}

// Fail makes fetches of term return err.
func (s *StaticSource) Fail(term string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[term] = err
}

// Calls returns how many times term was fetched.
func (s *StaticSource) Calls(term string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[term]
}

// Fetch returns the table set for term or an ErrFetch.
func (s *StaticSource) Fetch(ctx context.Context, term string) (model.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return model.RawTable{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[term]++
	if err, ok := s.errs[term]; ok {
		return model.RawTable{}, err
	}
	t, ok := s.tables[term]
	if !ok {
		return model.RawTable{}, fmt.Errorf("%w: no sheet named %q", ErrFetch, term)
	}
	return t, nil
}
