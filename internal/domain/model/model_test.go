package model_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/pawmatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseEnums(t *testing.T) {
	Convey("Given raw enumeration input", t, func() {
		Convey("When the value is known", func() {
			s, err := model.ParseSpecies(" Dog ")
			So(err, ShouldBeNil)
			So(s, ShouldEqual, model.SpeciesDog)

			sz, err := model.ParseSize("extra-large")
			So(err, ShouldBeNil)
			So(sz, ShouldEqual, model.SizeExtraLarge)

			l, err := model.ParseLivingSpace("house with yard")
			So(err, ShouldBeNil)
			So(l, ShouldEqual, model.LivingHouseWithYard)
		})

		Convey("When the value is unknown", func() {
			_, err := model.ParseExperience("expert")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, model.ErrUnknownValue), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "experience")
		})
	})
}

func TestAgeRange(t *testing.T) {
	Convey("Given an age range from young to adult", t, func() {
		r := model.AgeRange{Min: model.AgeYoung, Max: model.AgeAdult}

		So(r.Contains(model.AgeYoung), ShouldBeTrue)
		So(r.Contains(model.AgeAdult), ShouldBeTrue)
		So(r.Contains(model.AgeBaby), ShouldBeFalse)
		So(r.Contains(model.AgeSenior), ShouldBeFalse)
	})
}

func TestClampScore(t *testing.T) {
	Convey("Given raw scores outside the valid range", t, func() {
		So(model.ClampScore(150), ShouldEqual, 100)
		So(model.ClampScore(-5), ShouldEqual, 1)
		So(model.ClampScore(0.4), ShouldEqual, 1)
		So(model.ClampScore(72.5), ShouldEqual, 72.5)
		So(model.ClampScore(math.NaN()), ShouldEqual, model.NeutralScore)
		So(model.ClampScore(math.Inf(1)), ShouldEqual, 100)
	})
}

func TestSortByScore(t *testing.T) {
	Convey("Given pets with tied scores", t, func() {
		pets := []model.ScoredPet{
			{Pet: model.Pet{ID: "A"}, Score: 70},
			{Pet: model.Pet{ID: "B"}, Score: 70},
			{Pet: model.Pet{ID: "C"}, Score: 90},
		}

		model.SortByScore(pets)

		Convey("Then ties keep their input order", func() {
			So(pets[0].Pet.ID, ShouldEqual, "C")
			So(pets[1].Pet.ID, ShouldEqual, "A")
			So(pets[2].Pet.ID, ShouldEqual, "B")
		})
	})
}

func TestSelectPets(t *testing.T) {
	Convey("Given a catalog and a set of liked ids", t, func() {
		catalog := []model.Pet{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}
		ids := map[string]struct{}{"p3": {}, "p1": {}, "gone": {}}

		got := model.SelectPets(catalog, ids)

		Convey("Then pets come back in catalog order and unknown ids are skipped", func() {
			So(len(got), ShouldEqual, 2)
			So(got[0].ID, ShouldEqual, "p1")
			So(got[1].ID, ShouldEqual, "p3")
		})

		Convey("And an empty set selects nothing", func() {
			So(model.SelectPets(catalog, nil), ShouldBeNil)
		})
	})
}

func TestRankedListFind(t *testing.T) {
	Convey("Given a ranked list", t, func() {
		l := model.RankedList{Pets: []model.ScoredPet{{Pet: model.Pet{ID: "x"}, Score: 42}}}

		p, ok := l.Find("x")
		So(ok, ShouldBeTrue)
		So(p.Score, ShouldEqual, 42)

		_, ok = l.Find("y")
		So(ok, ShouldBeFalse)
	})
}
