package loadgen_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/wellscreen/internal/adapters/http/api"
	service "github.com/okian/wellscreen/internal/app"
	"github.com/okian/wellscreen/internal/domain/model"
	"github.com/okian/wellscreen/internal/loadgen"
	"github.com/okian/wellscreen/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func submissions(reqs []loadgen.Request) []model.Submission {
	out := make([]model.Submission, len(reqs))
	for i, r := range reqs {
		out[i] = r.Submission
	}
	return out
}

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		a := loadgen.NewGenerator(42).Generate(200)
		b := loadgen.NewGenerator(42).Generate(200)

		Convey("Then they produce the same submissions", func() {
			if diff := cmp.Diff(submissions(a), submissions(b)); diff != "" {
				t.Errorf("generators diverged (-a +b):\n%s", diff)
			}
		})

		Convey("Then every idempotency key is unique", func() {
			seen := make(map[string]bool, len(a))
			for _, r := range a {
				So(seen[r.IdempotencyKey], ShouldBeFalse)
				seen[r.IdempotencyKey] = true
			}
		})

		Convey("Then inputs stay within their documented ranges", func() {
			frac := func(p *float64) bool { return p == nil || (*p >= 0 && *p <= 1) }
			for _, r := range a {
				s := r.Submission
				So(s.PHQ4Total, ShouldBeBetweenOrEqual, 0, 12)
				So(s.PSS4Total, ShouldBeBetweenOrEqual, 0, 16)
				So(s.Burnout, ShouldBeBetweenOrEqual, 0.0, 4.0)
				So(frac(s.Game1.MeanErrorRate) && frac(s.Game1.DropoffRate), ShouldBeTrue)
				So(frac(s.Game2.NegativeCorrectRate) && frac(s.Game2.PositiveCorrectRate), ShouldBeTrue)
				if s.Game2.AvoidanceIndex != nil {
					So(*s.Game2.AvoidanceIndex, ShouldBeBetweenOrEqual, 0.0, 100.0)
				}
			}
		})

		Convey("Then the mix contains calm and crisis submissions", func() {
			var calm, crisis int
			for _, r := range a {
				if r.Submission.EmergencyFlag {
					crisis++
				}
				if r.Submission.PHQ4Total < 3 {
					calm++
				}
			}
			So(calm, ShouldBeGreaterThan, 0)
			So(crisis, ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given generators with different seeds", t, func() {
		a := loadgen.NewGenerator(1).Generate(50)
		b := loadgen.NewGenerator(2).Generate(50)

		Convey("Then their submissions differ", func() {
			So(cmp.Equal(submissions(a), submissions(b)), ShouldBeFalse)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	valid := loadgen.Config{BaseURL: "http://x", Count: 10, Workers: 2, Replays: 20, Sample: 5, Timeout: time.Second}

	cases := []struct {
		name   string
		mutate func(*loadgen.Config)
	}{
		{"empty url", func(c *loadgen.Config) { c.BaseURL = "" }},
		{"zero count", func(c *loadgen.Config) { c.Count = 0 }},
		{"zero workers", func(c *loadgen.Config) { c.Workers = 0 }},
		{"negative replays", func(c *loadgen.Config) { c.Replays = -1 }},
		{"negative sample", func(c *loadgen.Config) { c.Sample = -1 }},
		{"zero timeout", func(c *loadgen.Config) { c.Timeout = 0 }},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			if err := c.Validate(); !errors.Is(err, loadgen.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running wellscreen service", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(256))
		So(svc.Start(context.Background()), ShouldBeNil)

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)

		Reset(func() {
			srv.Close()
			svc.Stop()
		})

		Convey("When a load run completes", func() {
			out := filepath.Join(t.TempDir(), "runs", "submissions.json")
			stats, err := loadgen.Run(context.Background(), &loadgen.Config{
				BaseURL:    srv.URL,
				Count:      60,
				Workers:    4,
				Replays:    10,
				Sample:     15,
				Seed:       7,
				Timeout:    5 * time.Second,
				OutputFile: out,
			})
			So(err, ShouldBeNil)

			Convey("Then every submission is stored once", func() {
				So(stats.Generated, ShouldEqual, 60)
				So(stats.Created, ShouldEqual, 60)
				So(stats.Failed, ShouldEqual, 0)
				So(svc.GetStats()["storedRecords"], ShouldEqual, 60)
			})

			Convey("Then replays are deduplicated and samples match", func() {
				So(stats.Duplicates, ShouldEqual, 10)
				So(stats.Fetched, ShouldEqual, 15)
				So(stats.Mismatched, ShouldEqual, 0)
			})

			Convey("Then the tier distribution accounts for every record", func() {
				total := 0
				for tier, n := range stats.Tiers {
					So(model.Tier(tier).Valid(), ShouldBeTrue)
					total += n
				}
				So(total, ShouldEqual, 60)
			})

			Convey("Then the generated submissions are saved", func() {
				raw, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var saved []loadgen.Request
				So(json.Unmarshal(raw, &saved), ShouldBeNil)
				So(saved, ShouldHaveLength, 60)
			})
		})
	})

	Convey("Given an unhealthy service", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		Reset(srv.Close)

		Convey("When a load run starts", func() {
			_, err := loadgen.Run(context.Background(), &loadgen.Config{
				BaseURL: srv.URL, Count: 5, Workers: 1, Timeout: time.Second,
			})

			Convey("Then it fails on the health check", func() {
				So(errors.Is(err, loadgen.ErrUnexpectedStatus), ShouldBeTrue)
			})
		})
	})

	Convey("Given an invalid configuration", t, func() {
		_, err := loadgen.Run(context.Background(), &loadgen.Config{})

		Convey("Then the run is refused", func() {
			So(errors.Is(err, loadgen.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestNewCommand(t *testing.T) {
	Convey("Given the test-submissions command", t, func() {
		cmd := loadgen.NewCommand()

		Convey("Then it exposes the run flags with defaults", func() {
			So(cmd.Use, ShouldEqual, "test-submissions")
			for _, name := range []string{"url", "count", "workers", "replays", "sample", "seed", "timeout", "deadline", "output", "verbose"} {
				So(cmd.Flags().Lookup(name), ShouldNotBeNil)
			}
			So(cmd.Flags().Lookup("url").DefValue, ShouldEqual, "http://localhost:9080")
		})

		Convey("When it is pointed at an unreachable service", func() {
			cmd.SetArgs([]string{"--url", "http://127.0.0.1:1", "--count", "3", "--timeout", "200ms"})
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)

			Convey("Then it returns an error", func() {
				So(cmd.Execute(), ShouldNotBeNil)
			})
		})
	})
}
