package ranking

import (
	"math"

	"github.com/okian/attendboard/internal/domain/model"
	"github.com/okian/attendboard/internal/domain/scoring"
)

// Locate finds where the global ranking drops below threshold and returns the
// stable index of the first entry under it. It only applies in PLUS mode with
// a finite threshold, and the split must leave entries on both sides.
func Locate(ranked []model.RankedEntry, mode model.Mode, threshold *float64) (int, bool) {
	if mode != model.ModePlus || threshold == nil {
		return 0, false
	}
	t := *threshold
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, false
	}
	for i := range ranked {
		if scoring.OrderKey(ranked[i].Effective) < t {
			if i == 0 {
				return 0, false
			}
			return ranked[i].StableIndex, true
		}
	}
	return 0, false
}

// MarkerPosition returns where the entry carrying stableIndex sits in view.
// It reports false when the view does not contain that entry.
func MarkerPosition(view []model.RankedEntry, stableIndex int) (int, bool) {
	for i := range view {
		if view[i].StableIndex == stableIndex {
			return i, true
		}
	}
	return 0, false
}
