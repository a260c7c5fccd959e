package scoring_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/pawmatch/internal/domain/interaction"
	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

type stubOracle struct {
	answer string
	err    error
	delay  time.Duration
	calls  atomic.Int32
	last   scoring.Request
}

func (s *stubOracle) Judge(ctx context.Context, req scoring.Request) (string, error) {
	s.calls.Add(1)
	s.last = req
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.answer, s.err
}

func samplePet() model.Pet {
	return model.Pet{
		ID: "p1", Name: "Biscuit", Species: model.SpeciesDog, Breed: "Beagle",
		Size: model.SizeMedium, Age: model.AgeYoung, Interests: []string{"fetch"},
	}
}

func samplePrefs() model.Preferences {
	return model.Preferences{
		Species: model.SpeciesDog, Size: model.SizeMedium, ActivityLevel: model.ActivityHigh,
		Experience: model.ExperienceSome, LivingSpace: model.LivingHouseWithYard, MaxDistanceKm: 40,
	}
}

func TestClientScore(t *testing.T) {
	Convey("Given a client over a stub oracle", t, func() {
		ctx := context.Background()
		stats := interaction.Analyze(samplePet(), nil, nil)

		cases := []struct {
			answer string
			want   float64
		}{
			{"72", 72},
			{" 88.5\n", 88.5},
			{"150", 100},
			{"-5", 1},
			{"0", 1},
		}
		for _, tc := range cases {
			tc := tc
			Convey("When the oracle answers "+strings.TrimSpace(tc.answer), func() {
				res := scoring.NewClient(&stubOracle{answer: tc.answer}).Score(ctx, samplePet(), samplePrefs(), stats)

				Convey("Then the score is clamped into range", func() {
					So(res.Err, ShouldBeNil)
					So(res.PetID, ShouldEqual, "p1")
					So(res.Score, ShouldEqual, tc.want)
				})
			})
		}

		Convey("When the oracle answers with prose", func() {
			res := scoring.NewClient(&stubOracle{answer: "about 80"}).Score(ctx, samplePet(), samplePrefs(), stats)

			Convey("Then the result carries ErrOracleMalformedResponse", func() {
				So(errors.Is(res.Err, scoring.ErrOracleMalformedResponse), ShouldBeTrue)
				So(res.PetID, ShouldEqual, "p1")
			})
		})

		Convey("When the oracle answers NaN", func() {
			res := scoring.NewClient(&stubOracle{answer: "NaN"}).Score(ctx, samplePet(), samplePrefs(), stats)

			So(errors.Is(res.Err, scoring.ErrOracleMalformedResponse), ShouldBeTrue)
		})

		Convey("When the transport fails", func() {
			res := scoring.NewClient(&stubOracle{err: errors.New("dial tcp: refused")}).Score(ctx, samplePet(), samplePrefs(), stats)

			Convey("Then the result carries ErrOracleUnavailable", func() {
				So(errors.Is(res.Err, scoring.ErrOracleUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the oracle is slower than the timeout", func() {
			oracle := &stubOracle{answer: "90", delay: time.Second}
			client := scoring.NewClient(oracle, scoring.WithTimeout(20*time.Millisecond))
			start := time.Now()
			res := client.Score(ctx, samplePet(), samplePrefs(), stats)

			Convey("Then the call resolves to ErrOracleUnavailable promptly", func() {
				So(errors.Is(res.Err, scoring.ErrOracleUnavailable), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, 500*time.Millisecond)
			})
		})

		Convey("When a request is sent", func() {
			oracle := &stubOracle{answer: "60"}
			scoring.NewClient(oracle).Score(ctx, samplePet(), samplePrefs(), stats)

			Convey("Then it carries pet, preferences, history and rubric", func() {
				So(oracle.calls.Load(), ShouldEqual, 1)
				So(oracle.last.System, ShouldNotBeEmpty)
				So(oracle.last.User, ShouldContainSubstring, "breed: Beagle")
				So(oracle.last.User, ShouldContainSubstring, "living space: house_with_yard")
				So(oracle.last.User, ShouldContainSubstring, "Favorites: "+interaction.NoPattern)
				So(oracle.last.User, ShouldContainSubstring, "interaction history: 5%")
			})
		})
	})
}

func TestRubric(t *testing.T) {
	Convey("The rubric weights sum to 100", t, func() {
		total := 0
		for _, f := range scoring.Rubric {
			total += f.Weight
		}
		So(total, ShouldEqual, 100)
	})

	Convey("BuildRequest is deterministic", t, func() {
		stats := interaction.Analyze(samplePet(), []model.Pet{samplePet()}, nil)
		a := scoring.BuildRequest(samplePet(), samplePrefs(), stats)
		b := scoring.BuildRequest(samplePet(), samplePrefs(), stats)
		So(a.User, ShouldEqual, b.User)
	})
}

func TestSimulatedOracle(t *testing.T) {
	Convey("Given a fast simulated oracle", t, func() {
		oracle := scoring.NewSimulatedOracle(scoring.WithLatencyRange(time.Millisecond, 2*time.Millisecond))
		client := scoring.NewClient(oracle)
		ctx := context.Background()

		Convey("When scoring a matching pet and a mismatching one", func() {
			prefs := samplePrefs()
			good := samplePet()
			bad := model.Pet{ID: "p2", Species: model.SpeciesReptile, Size: model.SizeExtraLarge, Age: model.AgeSenior}
			prefs.AgeRange = &model.AgeRange{Min: model.AgeBaby, Max: model.AgeAdult}

			g := client.Score(ctx, good, prefs, interaction.Analyze(good, nil, nil))
			b := client.Score(ctx, bad, prefs, interaction.Analyze(bad, nil, nil))

			Convey("Then both are in range and the match ranks higher", func() {
				So(g.Err, ShouldBeNil)
				So(b.Err, ShouldBeNil)
				So(g.Score, ShouldBeBetweenOrEqual, model.MinScore, model.MaxScore)
				So(b.Score, ShouldBeBetweenOrEqual, model.MinScore, model.MaxScore)
				So(g.Score, ShouldBeGreaterThan, b.Score)
			})

			Convey("Then repeated scoring is stable", func() {
				again := client.Score(ctx, good, prefs, interaction.Analyze(good, nil, nil))
				So(again.Score, ShouldEqual, g.Score)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := oracle.Judge(cctx, scoring.BuildRequest(samplePet(), samplePrefs(), interaction.Stats{}))

			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
