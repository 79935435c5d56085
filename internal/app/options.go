package service

import (
	"time"

	"github.com/okian/attendboard/internal/adapters/repository"
	"github.com/okian/attendboard/internal/adapters/sheet"
	"github.com/okian/attendboard/internal/domain/columns"
	"github.com/okian/attendboard/internal/domain/leaderboard"
	"github.com/okian/attendboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where rosters are fetched from.
func WithSource(src sheet.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithStore sets the roster cache.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithBoard sets the ranking pipeline.
func WithBoard(b *leaderboard.Board) Option {
	return func(s *Service) {
		if b != nil {
			s.board = b
		}
	}
}

// WithLabels sets the column labels looked up in fetched tables.
func WithLabels(l columns.Labels) Option {
	return func(s *Service) {
		s.labels = l.WithDefaults()
	}
}

// WithTitle sets the board title.
func WithTitle(title string) Option {
	return func(s *Service) {
		s.title = title
	}
}

// WithTermStartYear sets the first year offered in the term list.
func WithTermStartYear(year int) Option {
	return func(s *Service) {
		if year > 0 {
			s.startYear = year
		}
	}
}

// WithSetupError makes the service show err as a setup hint and never fetch.
func WithSetupError(err error) Option {
	return func(s *Service) {
		s.setupErr = err
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many event ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithClock replaces time.Now, e.g. to pin the current term in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
