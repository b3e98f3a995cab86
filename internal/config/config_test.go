package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := New()

		Convey("Defaults match the documented deployment", func() {
			So(cfg.Addr, ShouldEqual, ":8000")
			So(cfg.EmbeddingDim, ShouldEqual, 128)
			So(cfg.SimilarityThreshold, ShouldEqual, 0.5)
			So(cfg.BatchConcurrency, ShouldEqual, 5)
			So(cfg.AsyncBatchThreshold, ShouldEqual, 100)
			So(cfg.CacheTTLSeconds, ShouldEqual, 3600)
			So(cfg.DefaultTopK, ShouldEqual, 10)
		})

		Convey("Duration helpers convert correctly", func() {
			So(cfg.CacheTTL(), ShouldEqual, time.Hour)
			So(cfg.FeatureStoreTimeout(), ShouldEqual, 30*time.Second)
			So(cfg.SnapshotTTL(), ShouldEqual, 5*time.Minute)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given configs with invalid fields", t, func() {
		Convey("Empty addr is rejected", func() {
			cfg := New()
			cfg.Addr = ""
			So(cfg.validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("Out-of-range threshold is rejected", func() {
			cfg := New()
			cfg.SimilarityThreshold = 1.5
			So(cfg.validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("Inconsistent top_k bounds are rejected", func() {
			cfg := New()
			cfg.DefaultTopK = 200
			So(cfg.validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("Non-positive concurrency is rejected", func() {
			cfg := New()
			cfg.BatchConcurrency = 0
			So(cfg.validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("Defaults validate cleanly", func() {
			So(New().validate(), ShouldBeNil)
		})
	})
}
