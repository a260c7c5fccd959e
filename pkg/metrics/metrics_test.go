package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered on that registry", func() {
				So(m, ShouldNotBeNil)
				m.cacheHits.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_cache_hits_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording cache lookups", func() {
			before := testutil.ToFloat64(globalManager.cacheStale)
			RecordCacheStale()
			RecordCacheStale()

			Convey("Then the counter moves", func() {
				So(testutil.ToFloat64(globalManager.cacheStale)-before, ShouldEqual, 2)
			})
		})

		Convey("When recording oracle failures by kind", func() {
			before := testutil.ToFloat64(globalManager.oracleFailures.WithLabelValues(OracleFailureMalformed))
			RecordOracleFailure(OracleFailureMalformed)

			So(testutil.ToFloat64(globalManager.oracleFailures.WithLabelValues(OracleFailureMalformed))-before, ShouldEqual, 1)
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordOracleCall(12)
				UpdateBreakerState("oracle", 0)
				RecordBreakerTrip()
				RecordCacheHit()
				RecordCacheMiss()
				RecordCacheWrite()
				RecordCacheError("get")
				UpdateCacheEntries(3)
				RecordBatch(5, 40)
				RecordBatchFallback()
				RecordCycleStarted()
				RecordCycleCoalesced()
				RecordCycleDiscarded()
				RecordCycleOutcome("scored", 80)
				RecordLogicCollision()
				UpdateSessions("ready", 1)
				RecordEventReceived("catalog_changed")
				RecordEventDuplicate()
				RecordEventApplied()
				RecordEventError()
				UpdateQueueSize(1)
				UpdateQueueCapacity(10)
				UpdateWorkerCount(2)
				RecordHTTPRequest("matches", "GET", "200", 3)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("Then the registry can be gathered", func() {
			_, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
		})
	})
}
