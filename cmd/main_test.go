package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/wellscreen/internal/config"
	"github.com/okian/wellscreen/pkg/logger"
	"github.com/okian/wellscreen/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainApplicationIntegration(t *testing.T) {
	t.Setenv("WELLSCREEN_CONFIG", "")
	t.Setenv("WELLSCREEN_ADDR", ":8081")
	t.Setenv("WELLSCREEN_ESCALATION__QUEUE_SIZE", "32")
	t.Setenv("WELLSCREEN_ESCALATION__WORKER_COUNT", "2")
	t.Setenv("WELLSCREEN_STORE__DRIVER", "sqlite")
	t.Setenv("WELLSCREEN_STORE__PATH", filepath.Join(t.TempDir(), "screenings.db"))

	convey.Convey("Given configuration from the environment", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
		convey.So(cfg.Escalation.QueueSize, convey.ShouldEqual, 32)

		convey.Convey("When the service and routes are wired", func() {
			svc := newService(cfg, logger.Get())
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := newMux(ctx, cfg, svc)
			get := func(path string) *httptest.ResponseRecorder {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				return w
			}

			convey.Convey("Then the configured store and workers are used", func() {
				stats := svc.GetStats()
				convey.So(stats["storeDriver"], convey.ShouldEqual, "sqlite")
				convey.So(stats["workerCount"], convey.ShouldEqual, 2)
				convey.So(stats["queueSize"], convey.ShouldEqual, 32)
			})

			convey.Convey("Then every route group answers", func() {
				convey.So(get("/").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/stats").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/dashboard").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/nope").Code, convey.ShouldEqual, http.StatusNotFound)
			})

			convey.Convey("Then a submission round-trips through the store", func() {
				w := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/screenings", strings.NewReader(`{"phq4_total":7}`))
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)

				var body struct {
					ID string `json:"id"`
				}
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(get("/screenings/"+body.ID).Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	t.Setenv("WELLSCREEN_CONFIG", "")
	t.Setenv("WELLSCREEN_STORE__DRIVER", "postgres")

	convey.Convey("Given an unsupported store driver", t, func() {
		convey.Convey("Then configuration loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		metrics.Configure(metrics.WithRefreshInterval(10 * time.Millisecond))
		convey.Reset(func() { metrics.Configure() })
		svc := newService(config.New(), logger.Get())

		convey.Convey("Then single updates do not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loops return once the context ends", func() {
			convey.So(metrics.RefreshInterval(), convey.ShouldEqual, 10*time.Millisecond)
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				startServiceMetricsUpdater(ctx, svc)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("metrics updaters did not stop")
			}
		})
	})
}
