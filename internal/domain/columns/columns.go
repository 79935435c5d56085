// Package columns maps logical roster fields to spreadsheet column positions.
package columns

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema reports that a required column is missing from the source.
var ErrSchema = errors.New("required column not found")

// Absent marks an optional field that did not resolve.
const Absent = -1

// Default header labels for the required fields.
const (
	DefaultName       = "Name"
	DefaultAttendance = "Attendance"
)

// Labels holds the header text wanted for each logical field.
// Events and Board are disabled when empty.
type Labels struct {
	Name       string
	Attendance string
	Events     string
	Board      string
}

// WithDefaults fills blank required labels with their defaults.
func (l Labels) WithDefaults() Labels {
	if strings.TrimSpace(l.Name) == "" {
		l.Name = DefaultName
	}
	if strings.TrimSpace(l.Attendance) == "" {
		l.Attendance = DefaultAttendance
	}
	return l
}

// Index is the resolved position of each field; optional fields may be Absent.
type Index struct {
	Name       int
	Attendance int
	Events     int
	Board      int
}

// HasEvents reports whether the events column resolved.
func (i Index) HasEvents() bool { return i.Events != Absent }

// HasBoard reports whether the board column resolved.
func (i Index) HasBoard() bool { return i.Board != Absent }

// Resolve finds each configured label in cols. Matching is case-insensitive
// exact equality and the lowest index wins.
func Resolve(cols []string, labels Labels) (Index, error) {
	labels = labels.WithDefaults()

	idx := Index{
		Name:       find(cols, labels.Name),
		Attendance: find(cols, labels.Attendance),
		Events:     find(cols, labels.Events),
		Board:      find(cols, labels.Board),
	}
	if idx.Name == Absent {
		return idx, fmt.Errorf("%w: name (wanted %q)", ErrSchema, labels.Name)
	}
	if idx.Attendance == Absent {
		return idx, fmt.Errorf("%w: attendance (wanted %q)", ErrSchema, labels.Attendance)
	}
	return idx, nil
}

func find(cols []string, label string) int {
	want := strings.ToLower(strings.TrimSpace(label))
	if want == "" {
		return Absent
	}
	for i, c := range cols {
		if strings.ToLower(strings.TrimSpace(c)) == want {
			return i
		}
	}
	return Absent
}
