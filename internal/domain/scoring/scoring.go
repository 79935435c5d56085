// Package scoring computes the mode-dependent effective score of an entry.
package scoring

import (
	"math"

	"github.com/okian/attendboard/internal/domain/model"
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithLabels sets the column labels used to name the score.
func WithLabels(attendance, events string) Option {
	return func(s *Scorer) {
		if attendance != "" {
			s.attendanceLabel = attendance
		}
		if events != "" {
			s.eventsLabel = events
		}
	}
}

// Scorer computes effective scores and their display labels.
type Scorer struct {
	attendanceLabel string
	eventsLabel     string
}

// New creates a scorer with the default labels.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		attendanceLabel: "Attendance",
		eventsLabel:     "Events",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Effective is attendance in BASE mode and attendance plus events in PLUS mode.
// A NaN component makes the result NaN; use OrderKey before comparing.
func (s *Scorer) Effective(e model.Entry, mode model.Mode) float64 {
	if mode == model.ModePlus {
		return e.Attendance + e.Events
	}
	return e.Attendance
}

// Label names the score column for mode.
func (s *Scorer) Label(mode model.Mode) string {
	if mode == model.ModePlus {
		return s.attendanceLabel + " + " + s.eventsLabel
	}
	return s.attendanceLabel
}

// OrderKey maps an effective score onto a totally ordered value.
// NaN sorts below every real score.
func OrderKey(effective float64) float64 {
	if math.IsNaN(effective) {
		return math.Inf(-1)
	}
	return effective
}
