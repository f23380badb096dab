package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/okian/wellscreen/internal/config"
	"github.com/okian/wellscreen/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

// clearConfigEnv unsets every WELLSCREEN_ variable for the duration of t.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "WELLSCREEN_") {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it has sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, int64(64<<10))
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.Store.Driver, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.Escalation.MinTier, convey.ShouldEqual, 3)
			convey.So(cfg.Escalation.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.Escalation.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Weights, convey.ShouldResemble, scoring.DefaultWeights())
			convey.So(cfg.Metrics, convey.ShouldResemble, config.MetricsConfig{Enabled: true, RefreshInterval: 10 * time.Second})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)

	convey.Convey("Given no file and no environment", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then the defaults are returned", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg, convey.ShouldResemble, config.New())
		})
	})
}

func TestLoad_Environment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WELLSCREEN_ADDR", ":8080")
	t.Setenv("WELLSCREEN_LOG_LEVEL", "debug")
	t.Setenv("WELLSCREEN_DEDUPE_SIZE", "250")
	t.Setenv("WELLSCREEN_MAX_BODY_BYTES", "4096")
	t.Setenv("WELLSCREEN_STORE__DRIVER", "sqlite")
	t.Setenv("WELLSCREEN_STORE__PATH", "/var/lib/wellscreen/screenings.db")
	t.Setenv("WELLSCREEN_ESCALATION__MIN_TIER", "2")
	t.Setenv("WELLSCREEN_ESCALATION__WORKER_COUNT", "4")
	t.Setenv("WELLSCREEN_METRICS__ENABLED", "false")
	t.Setenv("WELLSCREEN_METRICS__REFRESH_INTERVAL", "2s")

	convey.Convey("Given flat and nested environment variables", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then they override the defaults", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 250)
			convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, int64(4096))
			convey.So(cfg.Store, convey.ShouldResemble, config.StoreConfig{Driver: "sqlite", Path: "/var/lib/wellscreen/screenings.db"})
			convey.So(cfg.Escalation.MinTier, convey.ShouldEqual, 2)
			convey.So(cfg.Escalation.WorkerCount, convey.ShouldEqual, 4)
			convey.So(cfg.Metrics, convey.ShouldResemble, config.MetricsConfig{Enabled: false, RefreshInterval: 2 * time.Second})
		})

		convey.Convey("Then untouched nested keys keep their defaults", func() {
			convey.So(cfg.Escalation.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.Weights, convey.ShouldResemble, scoring.DefaultWeights())
		})
	})
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	clearConfigEnv(t)
	path := writeYAML(t, `
# service settings
addr: ":7000"
dedupe_size: 10
store:
  driver: jsonl
  path: /tmp/ledger
escalation:
  queue_size: 8
weights:
  wellness:
    stress: 0.25
    mood: 0.25
    focus: 0.25
    emotion: 0.25
`)
	t.Setenv("WELLSCREEN_CONFIG", path)
	t.Setenv("WELLSCREEN_ADDR", ":7001")

	convey.Convey("Given a YAML file and an environment override", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then the file applies and the environment wins", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7001")
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 10)
			convey.So(cfg.Store.Driver, convey.ShouldEqual, config.StoreJSONL)
			convey.So(cfg.Escalation.QueueSize, convey.ShouldEqual, 8)
			convey.So(cfg.Escalation.MinTier, convey.ShouldEqual, 3)
			convey.So(cfg.Weights.Wellness, convey.ShouldResemble, scoring.WellnessWeights{Stress: 0.25, Mood: 0.25, Focus: 0.25, Emotion: 0.25})
			convey.So(cfg.Weights.Focus, convey.ShouldResemble, scoring.DefaultWeights().Focus)
		})
	})
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		kind error
	}{
		{"empty addr", map[string]string{"WELLSCREEN_ADDR": ""}, config.ErrInvalidConfig},
		{"unknown driver", map[string]string{"WELLSCREEN_STORE__DRIVER": "postgres"}, config.ErrInvalidConfig},
		{"sqlite without path", map[string]string{"WELLSCREEN_STORE__DRIVER": "sqlite"}, config.ErrInvalidConfig},
		{"tier out of range", map[string]string{"WELLSCREEN_ESCALATION__MIN_TIER": "4"}, config.ErrInvalidConfig},
		{"zero queue", map[string]string{"WELLSCREEN_ESCALATION__QUEUE_SIZE": "0"}, config.ErrInvalidConfig},
		{"negative workers", map[string]string{"WELLSCREEN_ESCALATION__WORKER_COUNT": "-1"}, config.ErrInvalidConfig},
		{"zero refresh interval", map[string]string{"WELLSCREEN_METRICS__REFRESH_INTERVAL": "0s"}, config.ErrInvalidConfig},
		{"unbalanced weights", map[string]string{"WELLSCREEN_WEIGHTS__WELLNESS__FOCUS": "0.9"}, scoring.ErrInvalidWeights},
		{"not a number", map[string]string{"WELLSCREEN_DEDUPE_SIZE": "lots"}, config.ErrLoadConfig},
		{"missing file", map[string]string{"WELLSCREEN_CONFIG": "/non/existent/file.yaml"}, config.ErrLoadConfig},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Load(context.Background())
			if cfg != nil {
				t.Fatalf("expected no config, got %+v", cfg)
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WELLSCREEN_CONFIG", writeYAML(t, "addr: [unterminated"))

	convey.Convey("Given a malformed YAML file", t, func() {
		_, err := config.Load(context.Background())

		convey.Convey("Then loading fails", func() {
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}
