package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(
			WithPrometheusRegistry(reg),
			WithNamespace("test"),
			WithSubsystem("recommender"),
		)
		So(m, ShouldNotBeNil)

		Convey("All metric families register without collision", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			// Counters with no observations are not gathered, but gauges are.
			So(families, ShouldNotBeEmpty)
		})
	})
}

func TestPackageHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Recording helpers do not panic", func() {
			So(func() {
				RecordRecommendationsServed(3)
				RecordCandidateScored()
				RecordCandidateSkipped()
				RecordFallbackScore()
				RecordRecommendLatency(12.5)
				RecordModelReload("success")
				RecordModelReload("failure")
				RecordTrainingRun("success")
				UpdateModelLoaded(true)
				UpdateModelLoaded(false)
				RecordBatchJob("sync")
				RecordBatchJob("async")
				UpdateBatchQueueSize(4)
				RecordCacheHit()
				RecordCacheMiss()
				RecordFeatureFetchLatency(3.2)
				RecordFeatureFetchError()
				UpdateSnapshotStoreSize(10)
				UpdateWorkerActiveCount(5)
				RecordWorkerProcessingLatency(20)
				RecordScoringError()
				RecordHTTPRequest("recommend", "POST", "200")
				RecordHTTPRequestDuration("recommend", "POST", "200", 15)
			}, ShouldNotPanic)
		})

		Convey("The registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
