// Package leaderboard runs the ranking pipeline for one board state:
// rank globally, locate the threshold, filter, page, and shape the result.
package leaderboard

import (
	"math"

	"github.com/okian/attendboard/internal/domain/model"
	"github.com/okian/attendboard/internal/domain/paging"
	"github.com/okian/attendboard/internal/domain/ranking"
	"github.com/okian/attendboard/internal/domain/scoring"
	"github.com/okian/attendboard/internal/domain/types"
)

// PodiumSize is the number of entries shown on the podium.
const PodiumSize = 3

// Option applies a configuration option to the Board.
type Option func(*Board)

// WithRanker sets the ranker used for ordering.
func WithRanker(r *ranking.Ranker) Option {
	return func(b *Board) {
		if r != nil {
			b.ranker = r
		}
	}
}

// WithScorer sets the scorer used for labels.
func WithScorer(s *scoring.Scorer) Option {
	return func(b *Board) {
		if s != nil {
			b.scorer = s
		}
	}
}

// WithThreshold enables the threshold marker in PLUS mode.
func WithThreshold(t *float64) Option {
	return func(b *Board) {
		b.threshold = t
	}
}

// Board composes views. It holds no per-request state.
type Board struct {
	ranker    *ranking.Ranker
	scorer    *scoring.Scorer
	threshold *float64
}

// New creates a Board.
func New(opts ...Option) *Board {
	b := &Board{scorer: scoring.New()}
	for _, opt := range opts {
		opt(b)
	}
	if b.ranker == nil {
		b.ranker = ranking.New(ranking.WithScorer(b.scorer))
	}
	return b
}

// State is the interactive part of the board.
type State struct {
	Mode  model.Mode
	Query string
	Pager *paging.Pager
}

// Result is one complete pass of the pipeline.
type Result struct {
	Global   []model.RankedEntry
	Filtered []model.RankedEntry
	Page     []model.RankedEntry
	Info     paging.Page
	Podium   []model.RankedEntry
	// Marker is the position within Page of the first entry below the threshold.
	Marker *int
}

// Compose ranks entries under st and clamps st.Pager to the filtered length.
func (b *Board) Compose(entries []model.Entry, st State) Result {
	global := b.ranker.Rank(entries, st.Mode)
	split, hasSplit := ranking.Locate(global, st.Mode, b.threshold)
	filtered := ranking.Filter(global, st.Query)

	st.Pager.Clamp(len(filtered))
	page, info := paging.Slice(st.Pager, filtered)

	res := Result{
		Global:   global,
		Filtered: filtered,
		Page:     page,
		Info:     info,
		Podium:   ranking.Podium(global, PodiumSize),
	}
	if hasSplit {
		if pos, ok := ranking.MarkerPosition(page, split); ok {
			res.Marker = &pos
		}
	}
	return res
}

// Fill copies a pipeline result into v.
func (b *Board) Fill(v *types.View, res Result, st State) {
	v.Mode = st.Mode.String()
	v.ScoreLabel = b.scorer.Label(st.Mode)
	v.Query = st.Query
	v.Podium = rows(res.Podium)
	v.Rows = rows(res.Page)
	v.Page = res.Info.Index
	v.TotalPages = res.Info.TotalPages
	v.Count = len(res.Filtered)
	v.Marker = res.Marker
}

// Clear empties the data part of v, keeping mode and paging labels.
func (b *Board) Clear(v *types.View, st State) {
	v.Mode = st.Mode.String()
	v.ScoreLabel = b.scorer.Label(st.Mode)
	v.Query = st.Query
	v.Podium = []types.Row{}
	v.Rows = []types.Row{}
	v.Page = 1
	v.TotalPages = 1
	v.Count = 0
	v.Marker = nil
}

func rows(in []model.RankedEntry) []types.Row {
	out := make([]types.Row, len(in))
	for i := range in {
		e := &in[i]
		out[i] = types.Row{
			Rank:        e.Rank,
			Name:        e.Name,
			Score:       finite(e.Effective),
			Attendance:  finite(e.Attendance),
			Events:      finite(e.Events),
			Board:       e.IsBoard,
			StableIndex: e.StableIndex,
		}
	}
	return out
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
