package ranking

import (
	"strings"

	"github.com/okian/attendboard/internal/domain/model"
)

// Filter keeps entries whose name contains query as typed, ignoring case. A
// blank query returns ranked itself. Ranks always describe the full roster.
func Filter(ranked []model.RankedEntry, query string) []model.RankedEntry {
	if strings.TrimSpace(query) == "" {
		return ranked
	}
	needle := strings.ToLower(query)
	out := make([]model.RankedEntry, 0, len(ranked))
	for i := range ranked {
		if strings.Contains(strings.ToLower(ranked[i].Name), needle) {
			out = append(out, ranked[i])
		}
	}
	return out
}
