package loadgen

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/wellscreen/pkg/logger"
	"github.com/spf13/cobra"
)

// Default flag values.
const (
	defaultCount          = 1000
	defaultWorkersPerCPU  = 2
	defaultReplays        = 50
	defaultSample         = 100
	defaultTimeout        = 30 * time.Second
	defaultOverallTimeout = 10 * time.Minute
)

// NewCommand builds the test-submissions command.
func NewCommand() *cobra.Command {
	cfg := &Config{}
	var overall time.Duration

	cmd := &cobra.Command{
		Use:   "test-submissions",
		Short: "Drive a wellscreen service with generated screening submissions",
		Long: `test-submissions generates random screening submissions, posts them
concurrently to a running wellscreen service, re-sends some of them with
their idempotency keys, fetches a sample back and reports the resulting
tier distribution.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), overall)
			defer cancel()

			stats, err := Run(ctx, cfg)
			if err != nil {
				return err
			}
			if stats.Failed > 0 || stats.Mismatched > 0 {
				return fmt.Errorf("%d failed, %d mismatched", stats.Failed, stats.Mismatched)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVarP(&cfg.Count, "count", "n", defaultCount, "Number of submissions to generate")
	f.IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU()*defaultWorkersPerCPU, "Number of concurrent submitters")
	f.IntVar(&cfg.Replays, "replays", defaultReplays, "Submissions re-sent with their idempotency key")
	f.IntVar(&cfg.Sample, "sample", defaultSample, "Stored records fetched back and checked")
	f.Uint64Var(&cfg.Seed, "seed", 0, "Generator seed (0 picks one from the clock)")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&overall, "deadline", defaultOverallTimeout, "Deadline for the whole run")
	f.StringVarP(&cfg.OutputFile, "output", "o", "", "Write generated submissions to this JSON file")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every failed submission")

	return cmd
}
