package probe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pawmatch/internal/adapters/http/api"
	service "github.com/okian/pawmatch/internal/app"
	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/internal/probe"
	"github.com/okian/pawmatch/pkg/logger"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(service.WithSimulatedLatency(0, 0), service.WithWorkerCount(1))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, svc).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func TestClient(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv := newServer(t)
		c := probe.NewClient(srv.URL+"/", 5*time.Second)
		ctx := context.Background()

		Convey("Matches and Refresh return verified lists", func() {
			list, err := c.Matches(ctx, "alice", 0)
			So(err, ShouldBeNil)
			So(list.Pets, ShouldHaveLength, 8)
			So(probe.VerifyList(list), ShouldBeEmpty)

			list, err = c.Refresh(ctx, "alice", 3)
			So(err, ShouldBeNil)
			So(list.Pets, ShouldHaveLength, 3)
		})

		Convey("Score answers for a loaded list", func() {
			_, err := c.Matches(ctx, "bob", 0)
			So(err, ShouldBeNil)
			st, err := c.Score(ctx, "bob", "pet-002")
			So(err, ShouldBeNil)
			So(st.Pending, ShouldBeFalse)
			So(st.Score, ShouldBeBetweenOrEqual, model.MinScore, model.MaxScore)
		})

		Convey("Server errors surface as APIError", func() {
			_, err := c.Matches(ctx, "nobody", 0)
			var apiErr *probe.APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Status, ShouldEqual, http.StatusNotFound)
			So(apiErr.Code, ShouldEqual, "profile_not_found")
		})

		Convey("Notify fills the event id and detects redelivery", func() {
			ack, err := c.Notify(ctx, model.ChangeEvent{Kind: model.ChangeCatalog})
			So(err, ShouldBeNil)
			So(ack.Status, ShouldEqual, "accepted")

			e := model.ChangeEvent{EventID: "probe-1", Kind: model.ChangeHistory, UserID: "alice"}
			_, err = c.Notify(ctx, e)
			So(err, ShouldBeNil)
			ack, err = c.Notify(ctx, e)
			So(err, ShouldBeNil)
			So(ack.Duplicate, ShouldBeTrue)
		})

		Convey("Stats returns the snapshot", func() {
			stats, err := c.Stats(ctx)
			So(err, ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("Verify checks every user", func() {
			rep, err := probe.Verify(ctx, c, []string{"alice", "bob", "carol", "nobody"}, 2, logger.Nop())
			So(err, ShouldBeNil)
			So(rep.Users, ShouldEqual, 4)
			So(rep.Verified, ShouldEqual, 3)
			So(rep.Failed, ShouldEqual, 1)
			So(rep.Violations, ShouldBeEmpty)
			So(rep.OK(), ShouldBeFalse)
		})
	})
}

func TestVerifyList(t *testing.T) {
	Convey("Given ranked lists", t, func() {
		pet := func(id string, s float64) model.ScoredPet {
			return model.ScoredPet{Pet: model.Pet{ID: id}, Score: s}
		}

		Convey("A sorted list in bounds passes", func() {
			l := model.RankedList{Mode: model.ModeScored, Pets: []model.ScoredPet{pet("c", 90), pet("a", 70), pet("b", 70)}}
			So(probe.VerifyList(l), ShouldBeEmpty)
		})

		Convey("Order, bounds and duplicates are reported", func() {
			l := model.RankedList{Mode: model.ModeScored, Pets: []model.ScoredPet{pet("a", 70), pet("b", 101), pet("a", 0)}}
			So(probe.VerifyList(l), ShouldHaveLength, 4)
		})

		Convey("Neutral lists must carry the neutral score", func() {
			l := model.RankedList{Mode: model.ModeNeutral, Pets: []model.ScoredPet{pet("a", 50), pet("b", 40)}}
			So(probe.VerifyList(l), ShouldHaveLength, 1)
		})
	})
}
