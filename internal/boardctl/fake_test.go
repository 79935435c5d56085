package boardctl

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/okian/attendboard/internal/domain/types"
)

// fakeBoard mimics the service API. A refresh leaves the next read loading.
// With lag set, an event is applied only after that many reads, and every
// read in between publishes an unrelated newer view.
type fakeBoard struct {
	mu        sync.Mutex
	view      *types.View
	events    []eventRequest
	reads     int
	pending   bool
	duplicate bool
	seq       uint64
	lag       int
	deferred  func()
}

func ptr[T any](v T) *T { return &v }

func newFakeBoard() *fakeBoard {
	return &fakeBoard{view: &types.View{
		Version:    1,
		Title:      "Club",
		Term:       "2025-1",
		Terms:      []types.TermOption{{Key: "2024-2"}, {Key: "2025-1", Selected: true}},
		Mode:       "base",
		ScoreLabel: "Attendance",
		Podium:     []types.Row{{Rank: ptr(1), Name: "Ann", Score: ptr(10.0)}},
		Rows: []types.Row{
			{Rank: ptr(1), Name: "Ann", Score: ptr(10.0)},
			{Name: "Pres", Score: ptr(12.0), Board: true},
		},
		Page:       1,
		TotalPages: 1,
		Count:      2,
	}}
}

func (f *fakeBoard) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		var req eventRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.events = append(f.events, req)
		if req.Type == "select_term" && req.Value == "1999-1" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(errorResponse{Code: "bad_request", Message: "term 1999-1 is not offered"})
			return
		}
		ack := Ack{Status: "accepted", Receipt: types.Receipt{EventID: req.EventID, Version: f.view.Version}}
		if f.duplicate {
			ack.Status, ack.Duplicate = "duplicate", true
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(ack)
			return
		}
		f.seq++
		ack.Seq = f.seq
		apply := func() {
			switch req.Type {
			case "search":
				f.view.Query = req.Value
			case "toggle_mode":
				f.view.Mode = "plus"
			case "set_mode", "select_term":
				if req.Type == "set_mode" {
					f.view.Mode = req.Value
				} else {
					f.view.Term = req.Value
				}
			case "refresh":
				f.pending = true
			}
			f.view.Version++
			f.view.Applied = ack.Seq
			f.view.Loading = f.pending
		}
		if f.lag > 0 {
			f.deferred = apply
		} else {
			apply()
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(ack)
	})
	mux.HandleFunc("/view", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.reads++
		if f.view == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(f.view)
		if f.deferred != nil {
			f.view.Version++
			if f.lag--; f.lag == 0 {
				f.deferred()
				f.deferred = nil
			}
			return
		}
		if f.pending {
			f.pending = false
			f.view.Loading = false
			f.view.Version++
		}
	})
	mux.HandleFunc("/terms", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(f.view.Terms)
	})
	return httptest.NewServer(mux)
}

func (f *fakeBoard) update(fn func(f *fakeBoard)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBoard) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *fakeBoard) last() eventRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[len(f.events)-1]
}
