package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		os.Unsetenv("RECOMMENDER_CONFIG")
		os.Unsetenv("RECOMMENDER_ADDR")
		os.Unsetenv("RECOMMENDER_SIMILARITY_THRESHOLD")

		Convey("Load returns defaults", func() {
			cfg, err := Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8000")
			So(cfg.EmbeddingDim, ShouldEqual, 128)
		})

		Convey("Environment variables override defaults", func() {
			os.Setenv("RECOMMENDER_ADDR", ":9999")
			os.Setenv("RECOMMENDER_SIMILARITY_THRESHOLD", "0.7")
			defer os.Unsetenv("RECOMMENDER_ADDR")
			defer os.Unsetenv("RECOMMENDER_SIMILARITY_THRESHOLD")

			cfg, err := Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9999")
			So(cfg.SimilarityThreshold, ShouldEqual, 0.7)
		})

		Convey("A YAML file layers below env", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			data := []byte("addr: \":7070\"\ndefault_top_k: 25\n")
			So(os.WriteFile(path, data, 0o600), ShouldBeNil)

			os.Setenv("RECOMMENDER_CONFIG", path)
			defer os.Unsetenv("RECOMMENDER_CONFIG")

			cfg, err := Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.DefaultTopK, ShouldEqual, 25)

			Convey("And env still wins over the file", func() {
				os.Setenv("RECOMMENDER_ADDR", ":6060")
				defer os.Unsetenv("RECOMMENDER_ADDR")

				cfg, err := Load()
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
			})
		})

		Convey("Invalid values surface ErrInvalidConfig", func() {
			os.Setenv("RECOMMENDER_SIMILARITY_THRESHOLD", "3.0")
			defer os.Unsetenv("RECOMMENDER_SIMILARITY_THRESHOLD")

			_, err := Load()
			So(err, ShouldWrap, ErrInvalidConfig)
		})
	})
}
