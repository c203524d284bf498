package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/discochess/insight/internal/config"
)

func TestValidate(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()

		convey.Convey("It validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.StallTimeout, convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Threshold, convey.ShouldEqual, 360)
		})

		cases := []struct {
			name   string
			mutate func(*config.Config)
			want   error
		}{
			{"depth too deep", func(c *config.Config) { c.Depth = 19 }, config.ErrInvalidDepth},
			{"depth zero", func(c *config.Config) { c.Depth = 0 }, config.ErrInvalidDepth},
			{"no workers", func(c *config.Config) { c.Workers = 0 }, config.ErrInvalidWorkers},
			{"unknown platform", func(c *config.Config) { c.Platform = "fics" }, config.ErrInvalidPlatform},
			{"pgn without file", func(c *config.Config) { c.Platform = "pgn" }, config.ErrInvalidPlatform},
			{"unknown class", func(c *config.Config) { c.TimeClass = "daily" }, config.ErrInvalidTimeClass},
			{"bad start", func(c *config.Config) { c.Start = "2024-13" }, config.ErrInvalidStart},
			{"unknown backend", func(c *config.Config) { c.CacheBackend = "redis" }, config.ErrInvalidBackend},
			{"s3 without bucket", func(c *config.Config) { c.CacheBackend = "s3" }, config.ErrInvalidBackend},
			{"unknown codec", func(c *config.Config) { c.Codec = "lz4" }, config.ErrInvalidCodec},
			{"negative guard", func(c *config.Config) { c.Guard = -1 }, config.ErrInvalidValue},
		}
		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				c := *cfg
				tc.mutate(&c)
				convey.So(errors.Is(c.Validate(), tc.want), convey.ShouldBeTrue)
			})
		}
	})
}

func TestStartMonth(t *testing.T) {
	convey.Convey("Given a start month", t, func() {
		cfg := config.New()
		now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

		convey.Convey("Empty means now", func() {
			got, err := cfg.StartMonth(now)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Equal(now), convey.ShouldBeTrue)
		})

		convey.Convey("YYYY-MM parses", func() {
			cfg.Start = "2024-03"
			got, err := cfg.StartMonth(now)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Year(), convey.ShouldEqual, 2024)
			convey.So(got.Month(), convey.ShouldEqual, time.March)
		})
	})
}

func TestLoad(t *testing.T) {
	convey.Convey("Given a YAML file and environment overrides", t, func() {
		path := filepath.Join(t.TempDir(), "insight.yaml")
		yaml := "username: alice\nplatform: lichess\ndepth: 10\nstall_timeout: 5s\nmain_lines: false\n"
		convey.So(os.WriteFile(path, []byte(yaml), 0o644), convey.ShouldBeNil)

		t.Setenv("INSIGHT_DEPTH", "14")
		t.Setenv("INSIGHT_TIME_CLASS", "rapid")

		cfg, err := config.Load(path)

		convey.Convey("Later layers win and defaults survive", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Username, convey.ShouldEqual, "alice")
			convey.So(cfg.Platform, convey.ShouldEqual, "lichess")
			convey.So(cfg.Depth, convey.ShouldEqual, 14)
			convey.So(cfg.TimeClass, convey.ShouldEqual, "rapid")
			convey.So(cfg.StallTimeout, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.MainLines, convey.ShouldBeFalse)
			convey.So(cfg.Codec, convey.ShouldEqual, "zstd")
		})
	})

	convey.Convey("Given an invalid environment override", t, func() {
		t.Setenv("INSIGHT_WORKERS", "0")
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

		convey.Convey("Load fails", func() {
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given no file", t, func() {
		t.Setenv("INSIGHT_CONFIG", "")
		t.Setenv("INSIGHT_WORKERS", "0")
		_, err := config.Load("")

		convey.Convey("Validation rejects the override", func() {
			convey.So(errors.Is(err, config.ErrInvalidWorkers), convey.ShouldBeTrue)
		})
	})
}
