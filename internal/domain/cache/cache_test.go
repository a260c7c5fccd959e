package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIsValid(t *testing.T) {
	Convey("Given an entry computed at T0", t, func() {
		t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		e := Entry{Score: 62, ComputedAt: t0}

		Convey("Then it is stale once preferences change after T0", func() {
			So(IsValid(e, t0.Add(time.Second)), ShouldBeFalse)
		})
		Convey("Then it is valid when computed at the edit instant", func() {
			So(IsValid(e, t0), ShouldBeTrue)
		})
		Convey("Then it is valid when the edit predates it", func() {
			So(IsValid(e, t0.Add(-time.Hour)), ShouldBeTrue)
		})
		Convey("Then it is valid when no edit was ever recorded", func() {
			So(IsValid(e, time.Time{}), ShouldBeTrue)
		})
	})
}

func TestMemory(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		ctx := context.Background()
		now := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
		m := NewMemory(WithClock(func() time.Time { return now }))

		Convey("When a score is stored for one user", func() {
			So(m.Put(ctx, Key{UserID: "u1", PetID: "p1"}, Entry{Score: 80}), ShouldBeNil)

			Convey("Then the same task reads its own write stamped by the clock", func() {
				e, ok, err := m.Get(ctx, Key{UserID: "u1", PetID: "p1"})
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(e.Score, ShouldEqual, 80)
				So(e.ComputedAt, ShouldEqual, now)
			})

			Convey("Then another user does not see it", func() {
				_, ok, err := m.Get(ctx, Key{UserID: "u2", PetID: "p1"})
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("Then a later put overwrites it", func() {
				later := now.Add(time.Minute)
				So(m.Put(ctx, Key{UserID: "u1", PetID: "p1"}, Entry{Score: 40, ComputedAt: later}), ShouldBeNil)
				e, _, _ := m.Get(ctx, Key{UserID: "u1", PetID: "p1"})
				So(e.Score, ShouldEqual, 40)
				So(e.ComputedAt, ShouldEqual, later)
				n, _ := m.Len(ctx)
				So(n, ShouldEqual, 1)
			})

			Convey("Then invalidate removes it", func() {
				So(m.Invalidate(ctx, Key{UserID: "u1", PetID: "p1"}), ShouldBeNil)
				_, ok, _ := m.Get(ctx, Key{UserID: "u1", PetID: "p1"})
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When entries of two users exist", func() {
			_ = m.Put(ctx, Key{UserID: "u1", PetID: "p1"}, Entry{Score: 1})
			_ = m.Put(ctx, Key{UserID: "u1", PetID: "p2"}, Entry{Score: 2})
			_ = m.Put(ctx, Key{UserID: "u2", PetID: "p1"}, Entry{Score: 3})

			Convey("Then InvalidateUser only drops that user's entries", func() {
				So(m.InvalidateUser(ctx, "u1"), ShouldEqual, 2)
				n, _ := m.Len(ctx)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When many tasks write different keys concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_ = m.Put(ctx, Key{UserID: "u", PetID: fmt.Sprintf("p%d", i)}, Entry{Score: float64(i + 1)})
				}(i)
			}
			wg.Wait()

			Convey("Then no update is lost", func() {
				n, _ := m.Len(ctx)
				So(n, ShouldEqual, 50)
				e, ok, _ := m.Get(ctx, Key{UserID: "u", PetID: "p17"})
				So(ok, ShouldBeTrue)
				So(e.Score, ShouldEqual, 18)
			})
		})
	})

	Convey("Given a bounded store", t, func() {
		ctx := context.Background()
		m := NewMemory(WithMaxEntries(2))

		Convey("When a third key is written", func() {
			_ = m.Put(ctx, Key{UserID: "u", PetID: "a"}, Entry{Score: 1})
			_ = m.Put(ctx, Key{UserID: "u", PetID: "b"}, Entry{Score: 2})
			_, _, _ = m.Get(ctx, Key{UserID: "u", PetID: "a"})
			_ = m.Put(ctx, Key{UserID: "u", PetID: "c"}, Entry{Score: 3})

			Convey("Then the least recently used key is evicted", func() {
				_, okA, _ := m.Get(ctx, Key{UserID: "u", PetID: "a"})
				_, okB, _ := m.Get(ctx, Key{UserID: "u", PetID: "b"})
				_, okC, _ := m.Get(ctx, Key{UserID: "u", PetID: "c"})
				So(okA, ShouldBeTrue)
				So(okB, ShouldBeFalse)
				So(okC, ShouldBeTrue)
			})
		})
	})
}
