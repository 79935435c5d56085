package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/attendboard/internal/adapters/repository"
	"github.com/okian/attendboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func roster(term string, names ...string) repository.Roster {
	r := repository.Roster{Term: term}
	for _, n := range names {
		r.Entries = append(r.Entries, model.Entry{Name: n, Attendance: 1})
	}
	return r
}

func TestTermStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := repository.NewTermStore()

		Convey("When a missing term is read", func() {
			_, err := s.Get(ctx, "2024-1")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(s.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When a roster is stored", func() {
			So(s.Put(ctx, roster("2024-1", "Ann", "Ben")), ShouldBeNil)
			got, err := s.Get(ctx, "2024-1")

			Convey("Then it can be read back with a fetch time", func() {
				So(err, ShouldBeNil)
				So(len(got.Entries), ShouldEqual, 2)
				So(got.FetchedAt.IsZero(), ShouldBeFalse)
			})

			Convey("Then callers cannot mutate the cached entries", func() {
				got.Entries[0].Name = "Mallory"
				again, _ := s.Get(ctx, "2024-1")
				So(again.Entries[0].Name, ShouldEqual, "Ann")
			})

			Convey("Then storing again overwrites it", func() {
				So(s.Put(ctx, roster("2024-1", "Cat")), ShouldBeNil)
				again, _ := s.Get(ctx, "2024-1")
				So(len(again.Entries), ShouldEqual, 1)
				So(s.Len(ctx), ShouldEqual, 1)
			})

			Convey("Then invalidating removes it", func() {
				So(s.Invalidate(ctx, "2024-1"), ShouldBeTrue)
				So(s.Invalidate(ctx, "2024-1"), ShouldBeFalse)
				_, err := s.Get(ctx, "2024-1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the term key is blank", func() {
			err := s.Put(ctx, roster("  "))

			Convey("Then ErrInvalidTerm is returned", func() {
				So(errors.Is(err, repository.ErrInvalidTerm), ShouldBeTrue)
			})
		})

		Convey("When several terms are stored", func() {
			for _, k := range []string{"2025-1", "2023-2", "2024-1"} {
				So(s.Put(ctx, roster(k, "x")), ShouldBeNil)
			}

			Convey("Then Terms lists them sorted", func() {
				So(s.Terms(ctx), ShouldResemble, []string{"2023-2", "2024-1", "2025-1"})
			})
		})
	})

	Convey("Given a store bounded to two terms", t, func() {
		s := repository.NewTermStore(repository.WithMaxTerms(2))
		So(s.Put(ctx, roster("a", "x")), ShouldBeNil)
		So(s.Put(ctx, roster("b", "x")), ShouldBeNil)
		So(s.Put(ctx, roster("a", "y")), ShouldBeNil)
		So(s.Put(ctx, roster("c", "x")), ShouldBeNil)

		Convey("Then the least recently stored term is evicted", func() {
			So(s.Terms(ctx), ShouldResemble, []string{"a", "c"})
		})
	})

	Convey("Given a store with a fixed clock", t, func() {
		now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
		s := repository.NewTermStore(repository.WithClock(func() time.Time { return now }))
		So(s.Put(ctx, repository.Roster{Term: "2025-1"}), ShouldBeNil)

		Convey("When read long after it was stored", func() {
			now = now.Add(365 * 24 * time.Hour)
			r, err := s.Get(ctx, "2025-1")

			Convey("Then it is still cached and stamped with the store time", func() {
				So(err, ShouldBeNil)
				So(r.FetchedAt.Equal(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})
	})
}

func TestTermStoreConcurrent(t *testing.T) {
	Convey("Given concurrent writers and readers", t, func() {
		ctx := context.Background()
		s := repository.NewTermStore()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					_ = s.Put(ctx, roster(fmt.Sprintf("t%d", i), "x"))
				}
			}(i)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					_, _ = s.Get(ctx, fmt.Sprintf("t%d", i))
					_ = s.Terms(ctx)
				}
			}(i)
		}
		wg.Wait()

		Convey("Then every writer's term is present", func() {
			So(s.Len(ctx), ShouldEqual, 8)
		})
	})
}
