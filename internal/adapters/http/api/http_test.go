package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pawmatch/internal/adapters/http/api"
	"github.com/okian/pawmatch/internal/adapters/mq/queue"
	"github.com/okian/pawmatch/internal/domain/dedupe"
	"github.com/okian/pawmatch/internal/domain/match"
	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/internal/domain/profile"
)

type mockMatcher struct {
	list      model.RankedList
	err       error
	status    match.ScoreStatus
	refreshed int
}

func (m *mockMatcher) GetRankedList(_ context.Context, userID string) (model.RankedList, error) {
	if m.err != nil {
		return model.RankedList{}, m.err
	}
	l := m.list
	l.UserID = userID
	return l, nil
}

func (m *mockMatcher) Refresh(ctx context.Context, userID string) (model.RankedList, error) {
	m.refreshed++
	return m.GetRankedList(ctx, userID)
}

func (m *mockMatcher) ScoreFor(_ context.Context, _, petID string) (match.ScoreStatus, error) {
	if m.err != nil {
		return match.ScoreStatus{}, m.err
	}
	st := m.status
	st.PetID = petID
	return st, nil
}

type mockSink struct {
	*dedupe.Ring
	mu       sync.Mutex
	err      error
	enqueued []model.ChangeEvent
}

func (m *mockSink) Enqueue(_ context.Context, e model.ChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, e)
	return nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]any { return map[string]any{"queue_length": 3} }

func rankedFixture() model.RankedList {
	pets := make([]model.ScoredPet, 0, 4)
	for i, s := range []float64{90, 70, 70, 40} {
		pets = append(pets, model.ScoredPet{
			Pet:    model.Pet{ID: fmt.Sprintf("pet-%d", i+1)},
			Score:  s,
			Origin: model.OriginFresh,
		})
	}
	return model.RankedList{Pets: pets, Mode: model.ModeScored, Generation: 1}
}

func newMux(m api.Matcher, s api.EventSink) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(m, s, mockStats{}, api.WithMaxLimit(10)).Register(mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestMatchesRoutes(t *testing.T) {
	Convey("Given a server over a matcher", t, func() {
		m := &mockMatcher{list: rankedFixture()}
		mux := newMux(m, &mockSink{Ring: dedupe.NewRing()})

		Convey("GET /matches returns the ranked list", func() {
			w := do(mux, http.MethodGet, "/matches/alice", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")

			var got model.RankedList
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got.UserID, ShouldEqual, "alice")
			So(got.Pets, ShouldHaveLength, 4)
			So(got.Pets[0].Pet.ID, ShouldEqual, "pet-1")
		})

		Convey("The limit parameter truncates the list", func() {
			w := do(mux, http.MethodGet, "/matches/alice?limit=2", "")
			var got model.RankedList
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got.Pets, ShouldHaveLength, 2)
		})

		Convey("Invalid limits are rejected", func() {
			for _, q := range []string{"0", "-1", "abc", "11"} {
				w := do(mux, http.MethodGet, "/matches/alice?limit="+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			}
		})

		Convey("An unknown profile maps to 404 profile_not_found", func() {
			m.err = fmt.Errorf("%w: zed", profile.ErrProfileNotFound)
			w := do(mux, http.MethodGet, "/matches/zed", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "profile_not_found")
		})

		Convey("Unexpected errors map to 500", func() {
			m.err = fmt.Errorf("catalog down")
			w := do(mux, http.MethodGet, "/matches/alice", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(decodeError(w)["code"], ShouldEqual, "internal_error")
		})

		Convey("POST refresh reloads the list", func() {
			w := do(mux, http.MethodPost, "/matches/alice/refresh", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(m.refreshed, ShouldEqual, 1)
		})

		Convey("GET on the refresh route is not allowed", func() {
			w := do(mux, http.MethodGet, "/matches/alice/refresh", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("A ready score is returned with 200", func() {
			m.status = match.ScoreStatus{Score: 88, Origin: model.OriginCached}
			w := do(mux, http.MethodGet, "/matches/alice/pets/pet-9", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var st match.ScoreStatus
			So(json.Unmarshal(w.Body.Bytes(), &st), ShouldBeNil)
			So(st.PetID, ShouldEqual, "pet-9")
			So(st.Score, ShouldEqual, 88)
			So(st.Pending, ShouldBeFalse)
		})

		Convey("A pending score is returned with 202", func() {
			m.status = match.ScoreStatus{Pending: true}
			w := do(mux, http.MethodGet, "/matches/alice/pets/pet-9", "")
			So(w.Code, ShouldEqual, http.StatusAccepted)
		})

		Convey("An unknown pet maps to 404 pet_not_found", func() {
			m.err = fmt.Errorf("%w: pet-9", match.ErrPetNotFound)
			w := do(mux, http.MethodGet, "/matches/alice/pets/pet-9", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "pet_not_found")
		})
	})
}

func TestEventsRoute(t *testing.T) {
	Convey("Given a server with an event sink", t, func() {
		sink := &mockSink{Ring: dedupe.NewRing()}
		mux := newMux(&mockMatcher{}, sink)

		valid := `{"event_id":"e-1","kind":"preferences_changed","user_id":"alice","ts":"2026-01-01T12:00:00Z"}`

		Convey("A valid event is accepted and enqueued", func() {
			w := do(mux, http.MethodPost, "/events", valid)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(sink.enqueued, ShouldHaveLength, 1)
			So(sink.enqueued[0].Kind, ShouldEqual, model.ChangePreferences)
			So(sink.enqueued[0].UserID, ShouldEqual, "alice")
			So(sink.enqueued[0].Timestamp.Year(), ShouldEqual, 2026)
		})

		Convey("A redelivered event is acknowledged as duplicate", func() {
			So(do(mux, http.MethodPost, "/events", valid).Code, ShouldEqual, http.StatusAccepted)
			w := do(mux, http.MethodPost, "/events", valid)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			So(sink.enqueued, ShouldHaveLength, 1)
		})

		Convey("A catalog event needs no user", func() {
			w := do(mux, http.MethodPost, "/events", `{"event_id":"e-2","kind":"catalog_changed"}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)
		})

		Convey("Malformed events are rejected", func() {
			bodies := []string{
				`not json`,
				`{"kind":"catalog_changed"}`,
				`{"event_id":"e-3","kind":"weather_changed"}`,
				`{"event_id":"e-4","kind":"history_changed"}`,
				`{"event_id":"e-5","kind":"catalog_changed","ts":"yesterday"}`,
			}
			for _, b := range bodies {
				w := do(mux, http.MethodPost, "/events", b)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(sink.enqueued, ShouldBeEmpty)
		})

		Convey("A full queue answers 429 and forgets the id", func() {
			sink.err = queue.ErrFull
			w := do(mux, http.MethodPost, "/events", valid)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decodeError(w)["code"], ShouldEqual, "backpressure")
			So(sink.Size(), ShouldEqual, 0)

			sink.err = nil
			So(do(mux, http.MethodPost, "/events", valid).Code, ShouldEqual, http.StatusAccepted)
		})

		Convey("A closed queue answers 503", func() {
			sink.err = queue.ErrClosed
			w := do(mux, http.MethodPost, "/events", valid)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given a server", t, func() {
		mux := newMux(&mockMatcher{}, &mockSink{Ring: dedupe.NewRing()})

		Convey("healthz serves the metrics exposition", func() {
			_ = do(mux, http.MethodGet, "/stats", "")
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "pawmatch_engine_http_requests_total")
		})

		Convey("stats returns the provider snapshot", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"queue_length":3`)
		})

		Convey("unknown paths are 404", func() {
			So(do(mux, http.MethodGet, "/leaderboard", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
