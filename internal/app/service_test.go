package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	service "github.com/okian/attendboard/internal/app"
	"github.com/okian/attendboard/internal/adapters/sheet"
	"github.com/okian/attendboard/internal/domain/columns"
	"github.com/okian/attendboard/internal/domain/model"
	"github.com/okian/attendboard/internal/domain/types"
	"github.com/okian/attendboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var july2025 = time.Date(2025, time.July, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return july2025 }

func table() model.RawTable {
	t := model.RawTable{
		Columns: []string{"Name", "Attendance", "Events", "Board"},
		Rows: [][]model.Cell{
			{"Ann", 10.0, 2.0, false},
			{"Ben", 10.0, nil, ""},
			{"Cat", 8.0, 5.0, false},
			{"Pres", 12.0, 0.0, true},
		},
	}
	for i := 1; i <= 12; i++ {
		t.Rows = append(t.Rows, []model.Cell{fmt.Sprintf("Zed%02d", i), 1.0, 0.0, false})
	}
	return t
}

func newService(src sheet.Source, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithSource(src),
		service.WithClock(clock),
		service.WithLogger(logger.Nop()),
		service.WithTermStartYear(2024),
		service.WithTitle("Club"),
		service.WithLabels(columns.Labels{Events: "Events", Board: "Board"}),
	}
	return service.New(append(base, opts...)...)
}

func waitFor(s *service.Service, cond func(v *types.View) bool) *types.View {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v := s.View(); v != nil && cond(v) {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	return s.View()
}

func settled(seq uint64) func(v *types.View) bool {
	return func(v *types.View) bool { return v.Applied >= seq && !v.Loading }
}

func submit(s *service.Service, kind model.EventKind, value string) *types.View {
	r, err := s.Submit(context.Background(), model.Event{Kind: kind, Value: value})
	So(err, ShouldBeNil)
	return waitFor(s, settled(r.Seq))
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service that is not started", t, func() {
		s := newService(sheet.NewStaticSource())

		Convey("Then events are refused", func() {
			_, err := s.Submit(ctx, model.Event{Kind: model.EventRefresh})
			So(errors.Is(err, model.ErrNotStarted), ShouldBeTrue)
			So(s.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a started service with data for the current term", t, func() {
		src := sheet.NewStaticSource()
		src.Set("2025-1", table())
		s := newService(src)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		v := waitFor(s, settled(0))

		Convey("Then the current term is loaded", func() {
			So(v.Term, ShouldEqual, "2025-1")
			So(v.Title, ShouldEqual, "Club")
			So(v.Count, ShouldEqual, 16)
			So(v.UpdatedAt, ShouldNotBeNil)
			So(v.Error, ShouldEqual, "")
			So(v.TotalPages, ShouldEqual, 2)
			So(len(v.Rows), ShouldEqual, 10)
			So(v.Mode, ShouldEqual, "base")
			So(src.Calls("2025-1"), ShouldEqual, 1)
		})

		Convey("Then the term list runs from the start year to the current term", func() {
			keys := make([]string, len(v.Terms))
			for i, o := range v.Terms {
				keys[i] = o.Key
			}
			So(keys, ShouldResemble, []string{"2024-1", "2024-2", "2025-1"})
			So(v.Terms[2].Selected, ShouldBeTrue)
			So(s.Terms(), ShouldResemble, v.Terms)
		})

		Convey("Then board members keep their place without a rank", func() {
			So(v.Rows[0].Name, ShouldEqual, "Pres")
			So(v.Rows[0].Rank, ShouldBeNil)
			So(*v.Rows[1].Rank, ShouldEqual, 1)
			So(*v.Rows[2].Rank, ShouldEqual, 1)
			So(v.Podium[0].Name, ShouldEqual, "Ann")
		})

		Convey("When searching", func() {
			v := submit(s, model.EventSearch, "a")

			Convey("Then only matching names remain with their global ranks", func() {
				So(v.Count, ShouldEqual, 2)
				So(v.Rows[0].Name, ShouldEqual, "Ann")
				So(v.Rows[1].Name, ShouldEqual, "Cat")
				So(*v.Rows[1].Rank, ShouldEqual, 2)
				So(v.Query, ShouldEqual, "a")
				So(src.Calls("2025-1"), ShouldEqual, 1)
			})
		})

		Convey("When toggling the mode", func() {
			v := submit(s, model.EventToggleMode, "")

			Convey("Then events count towards the score", func() {
				So(v.Mode, ShouldEqual, "plus")
				So(v.ScoreLabel, ShouldEqual, "Attendance + Events")
				So(v.Rows[0].Name, ShouldEqual, "Cat")
				So(src.Calls("2025-1"), ShouldEqual, 1)
			})

			Convey("And setting it back explicitly", func() {
				v := submit(s, model.EventSetMode, "BASE")
				So(v.Mode, ShouldEqual, "base")
			})
		})

		Convey("When selecting page 2", func() {
			v := submit(s, model.EventSelectPage, "2")

			Convey("Then the rest of the list is shown", func() {
				So(v.Page, ShouldEqual, 2)
				So(len(v.Rows), ShouldEqual, 6)
			})

			Convey("And a search shrinks the list", func() {
				v := submit(s, model.EventSearch, "zed0")

				Convey("Then the page is clamped", func() {
					So(v.Count, ShouldEqual, 9)
					So(v.Page, ShouldEqual, 1)
				})
			})
		})

		Convey("When refreshing", func() {
			submit(s, model.EventRefresh, "")

			Convey("Then the roster is fetched again", func() {
				So(src.Calls("2025-1"), ShouldEqual, 2)
			})
		})

		Convey("When the same event id is submitted twice", func() {
			e := model.Event{EventID: "evt-1", Kind: model.EventToggleMode}
			first, err := s.Submit(ctx, e)
			So(err, ShouldBeNil)
			second, err := s.Submit(ctx, e)
			So(err, ShouldBeNil)
			v := waitFor(s, settled(first.Seq))

			Convey("Then it is applied once", func() {
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				So(second.Seq, ShouldEqual, 0)
				So(v.Mode, ShouldEqual, "plus")
			})
		})

		Convey("When events are submitted back to back", func() {
			first, err := s.Submit(ctx, model.Event{Kind: model.EventSearch, Value: "a"})
			So(err, ShouldBeNil)
			second, err := s.Submit(ctx, model.Event{Kind: model.EventSearch, Value: "b"})
			So(err, ShouldBeNil)
			v := waitFor(s, settled(second.Seq))

			Convey("Then sequence numbers follow submission order", func() {
				So(second.Seq, ShouldBeGreaterThan, first.Seq)
				So(v.Applied, ShouldEqual, second.Seq)
				So(v.Query, ShouldEqual, "b")
			})
		})

		Convey("When events are malformed", func() {
			bad := []model.Event{
				{Kind: "bogus"},
				{Kind: model.EventSetMode, Value: "double"},
				{Kind: model.EventSelectPage, Value: "two"},
				{Kind: model.EventSelectTerm, Value: "2030-1"},
				{Kind: model.EventSelectTerm, Value: "spring"},
			}

			Convey("Then they are rejected", func() {
				for _, e := range bad {
					_, err := s.Submit(ctx, e)
					So(errors.Is(err, model.ErrInvalidEvent), ShouldBeTrue)
				}
			})
		})

		Convey("When a past term without data is selected", func() {
			submit(s, model.EventSelectPage, "2")
			v := submit(s, model.EventSelectTerm, "2024-2")

			Convey("Then the rows are cleared with the generic message", func() {
				So(v.Term, ShouldEqual, "2024-2")
				So(v.Error, ShouldEqual, "Failed to load data. Check the configuration and sharing settings.")
				So(len(v.Rows), ShouldEqual, 0)
				So(len(v.Podium), ShouldEqual, 0)
				So(v.UpdatedAt, ShouldBeNil)
				So(v.Page, ShouldEqual, 1)
			})

			Convey("And switching back refetches the current term", func() {
				v := submit(s, model.EventSelectTerm, "2025-1")
				So(v.Error, ShouldEqual, "")
				So(v.Count, ShouldEqual, 16)
				So(src.Calls("2025-1"), ShouldEqual, 2)
			})
		})

		Convey("Then stats describe the board", func() {
			stats := s.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["term"], ShouldEqual, "2025-1")
			So(stats["entries"], ShouldEqual, 16)
			So(stats["cachedTerms"], ShouldResemble, []string{"2025-1"})
		})
	})
}

func TestServiceFailures(t *testing.T) {
	ctx := context.Background()

	Convey("Given no data for the current term", t, func() {
		s := newService(sheet.NewStaticSource())
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		v := waitFor(s, settled(0))

		Convey("Then the not-yet-published message is shown", func() {
			So(v.Error, ShouldEqual, "No data for term 2025-1 yet. Check back once it is published.")
			So(v.Count, ShouldEqual, 0)
			So(v.UpdatedAt, ShouldBeNil)
		})
	})

	Convey("Given a sheet without the attendance column", t, func() {
		src := sheet.NewStaticSource()
		src.Set("2025-1", model.RawTable{Columns: []string{"Name", "Score"}, Rows: [][]model.Cell{{"Ann", 1.0}}})
		s := newService(src)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		v := waitFor(s, settled(0))

		Convey("Then the refresh fails with the generic message", func() {
			So(v.Error, ShouldEqual, "Failed to load data. Check the configuration and sharing settings.")
			So(len(v.Rows), ShouldEqual, 0)
		})
	})

	Convey("Given a service without a configured sheet", t, func() {
		src := sheet.NewStaticSource()
		s := newService(src, service.WithSetupError(errors.New("sheet_id is not set")))
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		Convey("Then a setup hint is shown and nothing is fetched", func() {
			v := s.View()
			So(v, ShouldNotBeNil)
			So(v.SetupHint, ShouldContainSubstring, "sheet_id is not set")
			So(v.Loading, ShouldBeFalse)

			v = submit(s, model.EventRefresh, "")
			So(v.SetupHint, ShouldNotEqual, "")
			So(src.Calls("2025-1"), ShouldEqual, 0)
			So(s.GetStats()["configured"], ShouldEqual, false)
		})
	})
}

// gatedSource blocks every fetch until the test answers it.
type gatedSource struct {
	calls chan chan model.RawTable
}

func (g *gatedSource) Fetch(ctx context.Context, _ string) (model.RawTable, error) {
	reply := make(chan model.RawTable)
	select {
	case g.calls <- reply:
	case <-ctx.Done():
		return model.RawTable{}, ctx.Err()
	}
	select {
	case t := <-reply:
		return t, nil
	case <-ctx.Done():
		return model.RawTable{}, ctx.Err()
	}
}

func TestServiceStaleResponses(t *testing.T) {
	Convey("Given two refreshes whose responses arrive out of order", t, func() {
		ctx := context.Background()
		src := &gatedSource{calls: make(chan chan model.RawTable, 4)}
		s := newService(src)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		first := <-src.calls
		r, err := s.Submit(ctx, model.Event{Kind: model.EventRefresh})
		So(err, ShouldBeNil)
		second := <-src.calls

		newer := model.RawTable{Columns: []string{"Name", "Attendance"}, Rows: [][]model.Cell{{"New", 1.0}}}
		older := model.RawTable{Columns: []string{"Name", "Attendance"}, Rows: [][]model.Cell{{"Old", 1.0}, {"Older", 2.0}}}
		second <- newer
		v := waitFor(s, settled(r.Seq))
		first <- older
		time.Sleep(50 * time.Millisecond)

		Convey("Then the last request issued wins", func() {
			So(v.Count, ShouldEqual, 1)
			final := s.View()
			So(final.Count, ShouldEqual, 1)
			So(final.Rows[0].Name, ShouldEqual, "New")
			So(final.Loading, ShouldBeFalse)
		})
	})
}
