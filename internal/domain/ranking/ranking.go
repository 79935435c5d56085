// Package ranking orders entries, assigns ranks and derives views over the
// global ranking without disturbing it.
//
// Ordering: effective score DESC (NaN lowest), then name ASC by locale-aware
// collation, then raw bytes. Remaining ties keep input order.
package ranking

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/okian/attendboard/internal/domain/model"
	"github.com/okian/attendboard/internal/domain/scoring"
)

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithLocale sets the language used to compare names.
func WithLocale(tag language.Tag) Option {
	return func(r *Ranker) {
		r.locale = tag
	}
}

// WithScorer replaces the default scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(r *Ranker) {
		if s != nil {
			r.scorer = s
		}
	}
}

// Ranker assigns effective scores, order, rank and stable index in one pass.
type Ranker struct {
	locale language.Tag
	scorer *scoring.Scorer

	// collate.Collator keeps internal buffers and is not safe for concurrent use.
	mu       sync.Mutex
	collator *collate.Collator
}

// New creates a ranker comparing names in English unless configured otherwise.
func New(opts ...Option) *Ranker {
	r := &Ranker{
		locale: language.English,
		scorer: scoring.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.collator = collate.New(r.locale)
	return r
}

// Rank orders entries for mode and numbers them. Board members keep their
// sorted position but get no rank and do not advance the counter; the others
// share a rank when their scores are equal (1, 1, 2).
func (r *Ranker) Rank(entries []model.Entry, mode model.Mode) []model.RankedEntry {
	out := make([]model.RankedEntry, len(entries))
	for i, e := range entries {
		out[i] = model.RankedEntry{Entry: e, Effective: r.scorer.Effective(e, mode)}
	}

	r.mu.Lock()
	sort.SliceStable(out, func(i, j int) bool { return r.less(&out[i], &out[j]) })
	r.mu.Unlock()

	assignRanks(out)
	return out
}

func (r *Ranker) less(a, b *model.RankedEntry) bool {
	ka, kb := scoring.OrderKey(a.Effective), scoring.OrderKey(b.Effective)
	if ka != kb {
		return ka > kb
	}
	if c := r.collator.CompareString(a.Name, b.Name); c != 0 {
		return c < 0
	}
	return a.Name < b.Name
}

func assignRanks(out []model.RankedEntry) {
	rank := 0
	started := false
	var last float64
	for i := range out {
		out[i].StableIndex = i
		if out[i].IsBoard {
			out[i].Rank = nil
			continue
		}
		key := scoring.OrderKey(out[i].Effective)
		if !started || key != last {
			rank++
			last = key
			started = true
		}
		r := rank
		out[i].Rank = &r
	}
}

// Entries strips ranking data, e.g. to rank an already ranked list again.
func Entries(ranked []model.RankedEntry) []model.Entry {
	out := make([]model.Entry, len(ranked))
	for i := range ranked {
		out[i] = ranked[i].Entry
	}
	return out
}

// Podium returns up to n leading non-board entries.
func Podium(ranked []model.RankedEntry, n int) []model.RankedEntry {
	out := make([]model.RankedEntry, 0, n)
	for i := range ranked {
		if len(out) == n {
			break
		}
		if !ranked[i].IsBoard {
			out = append(out, ranked[i])
		}
	}
	return out
}
