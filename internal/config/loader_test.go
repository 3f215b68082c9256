package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/padhaku/eduverse-analytics/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"EDUVERSE_CONFIG",
		"EDUVERSE_ADDR",
		"EDUVERSE_QUEUE_SIZE",
		"EDUVERSE_WORKER_COUNT",
		"EDUVERSE_DEDUPE_SIZE",
		"EDUVERSE_STORE_KIND",
		"EDUVERSE_STORE_DRIVER",
		"EDUVERSE_STORE_DSN",
		"EDUVERSE_MAX_LEADERBOARD_LIMIT",
		"EDUVERSE_TIMEZONE",
		"EDUVERSE_CHAPTER_POINTS",
		"EDUVERSE_COURSE_BONUS",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 100_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
				convey.So(cfg.StoreKind, convey.ShouldEqual, config.StoreKindMemory)
				convey.So(cfg.Location(), convey.ShouldEqual, time.UTC)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("EDUVERSE_ADDR", ":8080")
			_ = os.Setenv("EDUVERSE_QUEUE_SIZE", "5000")
			_ = os.Setenv("EDUVERSE_WORKER_COUNT", "16")
			_ = os.Setenv("EDUVERSE_CHAPTER_POINTS", "25")
			_ = os.Setenv("EDUVERSE_TIMEZONE", "Asia/Kolkata")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 5000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.ChapterPoints, convey.ShouldEqual, 25)
				convey.So(cfg.Location().String(), convey.ShouldEqual, "Asia/Kolkata")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
queue_size: 3000
worker_count: 24
store_kind: "database"
store_driver: "postgres"
store_dsn: "host=localhost user=eduverse dbname=eduverse"
course_bonus: 75
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("EDUVERSE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 3000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.StoreKind, convey.ShouldEqual, config.StoreKindDatabase)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "postgres")
				convey.So(cfg.CourseBonus, convey.ShouldEqual, 75)
			})
		})

		convey.Convey("When env vars and a YAML file disagree", func() {
			yamlContent := `
addr: ":9090"
worker_count: 24
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("EDUVERSE_CONFIG", tmpFile)
			_ = os.Setenv("EDUVERSE_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
			})
		})

		convey.Convey("When the config file path does not exist", func() {
			_ = os.Setenv("EDUVERSE_CONFIG", "/nonexistent/config.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail with a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When validation fails", func() {
			convey.Convey("And the store kind is unknown", func() {
				_ = os.Setenv("EDUVERSE_STORE_KIND", "redis")
				defer clearConfigEnvVars()

				cfg, err := config.Load(ctx)

				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})

			convey.Convey("And the worker count is zero", func() {
				_ = os.Setenv("EDUVERSE_WORKER_COUNT", "0")
				defer clearConfigEnvVars()

				_, err := config.Load(ctx)

				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})

			convey.Convey("And the timezone is not a valid zone name", func() {
				_ = os.Setenv("EDUVERSE_TIMEZONE", "Mars/Olympus_Mons")
				defer clearConfigEnvVars()

				_, err := config.Load(ctx)

				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})

			convey.Convey("And the database store has no DSN", func() {
				_ = os.Setenv("EDUVERSE_STORE_KIND", "database")
				_ = os.Setenv("EDUVERSE_STORE_DSN", "")
				defer clearConfigEnvVars()

				_, err := config.Load(ctx)

				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
