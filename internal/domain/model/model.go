// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Cell is one spreadsheet cell: string, float64, int64, bool or nil.
type Cell = any

// RawTable is the roster exactly as the data source returned it.
type RawTable struct {
	Columns []string
	Rows    [][]Cell
}

// Entry is one roster member after parsing.
type Entry struct {
	Name       string
	Attendance float64 // NaN when the cell could not be read as a number
	Events     float64
	IsBoard    bool
}

// RankedEntry is an Entry placed in the global ranking.
type RankedEntry struct {
	Entry
	Effective   float64
	Rank        *int // nil for board members
	StableIndex int  // position in the unfiltered ranking
}

// Mode selects how the effective score is computed.
type Mode int

const (
	// ModeBase scores by attendance only.
	ModeBase Mode = iota
	// ModePlus adds events to attendance.
	ModePlus
)

func (m Mode) String() string {
	switch m {
	case ModeBase:
		return "base"
	case ModePlus:
		return "plus"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Toggle flips between BASE and PLUS.
func (m Mode) Toggle() Mode {
	if m == ModePlus {
		return ModeBase
	}
	return ModePlus
}

// ParseMode accepts "base" or "plus" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base":
		return ModeBase, nil
	case "plus":
		return ModePlus, nil
	default:
		return ModeBase, fmt.Errorf("unknown mode %q", s)
	}
}

// EventKind names a user interaction the board reacts to.
type EventKind string

// Board event kinds.
const (
	EventSearch     EventKind = "search"
	EventToggleMode EventKind = "toggle_mode"
	EventSetMode    EventKind = "set_mode"
	EventSelectPage EventKind = "select_page"
	EventSelectTerm EventKind = "select_term"
	EventRefresh    EventKind = "refresh"
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventSearch, EventToggleMode, EventSetMode, EventSelectPage, EventSelectTerm, EventRefresh:
		return true
	}
	return false
}

// Event represents a board interaction submitted by clients.
type Event struct {
	EventID string    // unique id for idempotency
	Kind    EventKind // what happened
	Value   string    // query text, mode name, page number or term key
	TS      time.Time // client timestamp
}
