package repository

import "time"

// Option applies a configuration option to the TermStore.
type Option func(*TermStore)

// WithMaxTerms bounds how many terms are kept. The least recently stored
// term is evicted first. Values <= 0 mean unbounded.
func WithMaxTerms(n int) Option {
	return func(s *TermStore) {
		s.maxTerms = n
	}
}

// WithClock replaces time.Now, used to stamp rosters stored without a fetch time.
func WithClock(now func() time.Time) Option {
	return func(s *TermStore) {
		if now != nil {
			s.now = now
		}
	}
}
