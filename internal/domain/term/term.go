// Package term computes academic half-year keys used to partition roster data.
package term

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTerm reports a key that is not "{year}-{1|2}".
var ErrInvalidTerm = errors.New("invalid term")

// Term is an academic half-year: Half 1 runs March to August, Half 2 runs
// September to February of the following year.
type Term struct {
	Year int
	Half int
}

// Key returns the "{year}-{half}" form used as cache and fetch key.
func (t Term) Key() string {
	return fmt.Sprintf("%d-%d", t.Year, t.Half)
}

func (t Term) String() string { return t.Key() }

// Next returns the following term.
func (t Term) Next() Term {
	if t.Half == 1 {
		return Term{Year: t.Year, Half: 2}
	}
	return Term{Year: t.Year + 1, Half: 1}
}

// Before reports whether t is earlier than o.
func (t Term) Before(o Term) bool {
	if t.Year != o.Year {
		return t.Year < o.Year
	}
	return t.Half < o.Half
}

// Current returns the term containing date.
func Current(date time.Time) Term {
	y, m := date.Year(), date.Month()
	switch {
	case m >= time.March && m <= time.August:
		return Term{Year: y, Half: 1}
	case m >= time.September:
		return Term{Year: y, Half: 2}
	default:
		return Term{Year: y - 1, Half: 2}
	}
}

// List returns every term from startYear's first half up to the term
// containing now, oldest first. It is empty when startYear is in the future.
func List(startYear int, now time.Time) []Term {
	last := Current(now)
	var out []Term
	for t := (Term{Year: startYear, Half: 1}); !last.Before(t); t = t.Next() {
		out = append(out, t)
	}
	return out
}

// Parse reads a "{year}-{1|2}" key.
func Parse(key string) (Term, error) {
	y, h, ok := strings.Cut(strings.TrimSpace(key), "-")
	if !ok {
		return Term{}, fmt.Errorf("%w: %q", ErrInvalidTerm, key)
	}
	year, err := strconv.Atoi(y)
	if err != nil || year < 1 {
		return Term{}, fmt.Errorf("%w: %q", ErrInvalidTerm, key)
	}
	if h != "1" && h != "2" {
		return Term{}, fmt.Errorf("%w: %q", ErrInvalidTerm, key)
	}
	return Term{Year: year, Half: int(h[0] - '0')}, nil
}
