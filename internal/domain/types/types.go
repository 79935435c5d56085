// Package types contains the read shapes handed to presentation layers.
package types

import "time"

// Row is one displayed leaderboard line.
type Row struct {
	Rank        *int     `json:"rank"` // null for board members
	Name        string   `json:"name"`
	Score       *float64 `json:"score"` // null when the score could not be read
	Attendance  *float64 `json:"attendance"`
	Events      *float64 `json:"events"`
	Board       bool     `json:"board"`
	StableIndex int      `json:"stable_index"`
}

// TermOption is a selectable term.
type TermOption struct {
	Key      string `json:"key"`
	Selected bool   `json:"selected"`
}

// View is everything a presentation layer needs to draw the board.
type View struct {
	Version uint64 `json:"version"`
	// Applied is the sequence number of the last event reflected here.
	Applied    uint64       `json:"applied"`
	Title      string       `json:"title,omitempty"`
	Term       string       `json:"term"`
	Terms      []TermOption `json:"terms"`
	Mode       string       `json:"mode"`
	ScoreLabel string       `json:"score_label"`
	Query      string       `json:"query"`
	Podium     []Row        `json:"podium"`
	Rows       []Row        `json:"rows"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
	Count      int          `json:"count"`
	// Marker is the row position on this page before which the threshold
	// line is drawn; null when there is none.
	Marker    *int       `json:"marker"`
	UpdatedAt *time.Time `json:"updated_at"`
	Loading   bool       `json:"loading"`
	Error     string     `json:"error,omitempty"`
	SetupHint string     `json:"setup_hint,omitempty"`
}

// Receipt acknowledges a submitted event.
type Receipt struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
	// Version is the view version current when the event was accepted.
	Version uint64 `json:"version"`
	// Seq orders accepted events. Views with Applied >= Seq include this one.
	Seq uint64 `json:"seq,omitempty"`
}
