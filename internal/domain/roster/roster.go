// Package roster turns raw spreadsheet rows into typed entries.
package roster

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/okian/attendboard/internal/domain/columns"
	"github.com/okian/attendboard/internal/domain/model"
)

// Build converts every row with a non-empty name into an Entry.
// Rows without a name are skipped; they are not an error.
func Build(table model.RawTable, idx columns.Index) []model.Entry {
	out := make([]model.Entry, 0, len(table.Rows))
	for _, row := range table.Rows {
		name := strings.TrimSpace(Text(cell(row, idx.Name)))
		if name == "" {
			continue
		}
		e := model.Entry{
			Name:       name,
			Attendance: Number(cell(row, idx.Attendance)),
		}
		if idx.HasEvents() {
			e.Events = Number(cell(row, idx.Events))
		}
		if idx.HasBoard() {
			e.IsBoard = Flag(cell(row, idx.Board))
		}
		out = append(out, e)
	}
	return out
}

func cell(row []model.Cell, i int) model.Cell {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// Text renders a cell the way a spreadsheet shows it; nil is empty.
func Text(c model.Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Number coerces a cell to a count. Missing cells and blank strings are 0.
// Strings read as decimals, or as unsigned integers with a 0x, 0b or 0o
// prefix; anything else is NaN.
func Number(c model.Cell) float64 {
	switch v := c.(type) {
	case nil:
		return 0
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return parseNumber(v)
	default:
		return math.NaN()
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
		return math.NaN()
	}
	if unsigned := strings.TrimLeft(lower, "+-"); len(unsigned) > 1 && unsigned[0] == '0' {
		if base := radix(unsigned[1]); base != 0 {
			if unsigned != lower {
				return math.NaN()
			}
			return parseRadix(unsigned[2:], base)
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return f
		}
		return math.NaN()
	}
	return f
}

func radix(c byte) int {
	switch c {
	case 'x':
		return 16
	case 'b':
		return 2
	case 'o':
		return 8
	default:
		return 0
	}
}

func parseRadix(digits string, base int) float64 {
	n, err := strconv.ParseUint(digits, base, 64)
	if err == nil {
		return float64(n)
	}
	if !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	wide, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return math.NaN()
	}
	f, _ := new(big.Float).SetInt(wide).Float64()
	return f
}

// Flag reports a board marker: boolean true, or "o"/"true" in any case.
func Flag(c model.Cell) bool {
	switch v := c.(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "o" || s == "true"
	default:
		return false
	}
}
