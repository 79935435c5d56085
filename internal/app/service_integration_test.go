package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/attendboard/internal/adapters/http/api"
	"github.com/okian/attendboard/internal/adapters/sheet"
	"github.com/okian/attendboard/internal/boardctl"
	"github.com/okian/attendboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceOverHTTP(t *testing.T) {
	Convey("Given a started service behind the HTTP API", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		src := sheet.NewStaticSource()
		src.Set("2025-1", table())

		svc := newService(src)
		So(svc.Start(ctx), ShouldBeNil)

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		Reset(func() {
			srv.Close()
			svc.Stop()
			cancel()
		})

		client := boardctl.NewClient(srv.URL, time.Second)
		first, err := client.Await(ctx, 0)
		So(err, ShouldBeNil)

		Convey("Then the first view holds the whole roster", func() {
			So(first.Term, ShouldEqual, "2025-1")
			So(first.Count, ShouldEqual, 16)
			So(first.TotalPages, ShouldEqual, 2)
			So(first.Rows[0].Name, ShouldEqual, "Pres")
			So(first.Rows[0].Rank, ShouldBeNil)
			So(*first.Rows[1].Rank, ShouldEqual, 1)
			So(len(first.Podium), ShouldEqual, 3)
		})

		Convey("When searching and paging through the client", func() {
			searched, err := client.Apply(ctx, model.EventSearch, "zed")
			So(err, ShouldBeNil)
			paged, err := client.Apply(ctx, model.EventSelectPage, "2")
			So(err, ShouldBeNil)

			Convey("Then ranks stay global and the last page is short", func() {
				So(searched.Count, ShouldEqual, 12)
				So(*searched.Rows[0].Rank, ShouldEqual, 3)
				So(paged.Page, ShouldEqual, 2)
				So(len(paged.Rows), ShouldEqual, 2)
			})
		})

		Convey("When switching to PLUS mode", func() {
			v, err := client.Apply(ctx, model.EventSetMode, "plus")

			Convey("Then the score label names both columns", func() {
				So(err, ShouldBeNil)
				So(v.Mode, ShouldEqual, "plus")
				So(v.ScoreLabel, ShouldContainSubstring, "+")
			})
		})

		Convey("When selecting a term that is not offered", func() {
			_, err := client.Apply(ctx, model.EventSelectTerm, "1999-1")

			Convey("Then the API rejects it", func() {
				So(errors.Is(err, boardctl.ErrRejected), ShouldBeTrue)
			})
		})

		Convey("When refreshing", func() {
			before := src.Calls("2025-1")
			_, err := client.Apply(ctx, model.EventRefresh, "")

			Convey("Then the sheet is fetched again", func() {
				So(err, ShouldBeNil)
				So(src.Calls("2025-1"), ShouldEqual, before+1)
			})
		})
	})
}
