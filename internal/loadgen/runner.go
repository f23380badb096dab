package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/wellscreen/internal/domain/types"
	"github.com/okian/wellscreen/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	directoryPermission = 0750
	filePermission      = 0600
	percent             = 100
)

// Run executes a complete load run: health check, generation, concurrent
// submission, idempotent replays and a fetch-back of a sample.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("loadgen")
	stats := newStats()

	log.Info(ctx, "starting wellscreen load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("count", cfg.Count),
		logger.Int("workers", cfg.Workers),
		logger.Int("replays", cfg.Replays),
		logger.Int("sample", cfg.Sample),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	reqs := NewGenerator(seed).Generate(cfg.Count)
	stats.Generated = len(reqs)

	receipts, err := submitAll(ctx, client, cfg, reqs, stats, log)
	if err != nil {
		return nil, fmt.Errorf("submission failed: %w", err)
	}
	if err := replay(ctx, client, cfg, reqs, receipts, stats, log); err != nil {
		return nil, fmt.Errorf("replay failed: %w", err)
	}
	if err := verify(ctx, client, cfg, receipts, stats, log); err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := save(cfg.OutputFile, reqs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		} else {
			log.Info(ctx, "submissions saved", logger.String("file", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	report(ctx, log, stats)
	return stats, nil
}

// submitAll posts every request with at most cfg.Workers in flight.
// receipts[i] is nil when request i failed.
func submitAll(ctx context.Context, client *Client, cfg *Config, reqs []Request, stats *Stats, log logger.Logger) ([]*types.Receipt, error) {
	receipts := make([]*types.Receipt, len(reqs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, req := range reqs {
		g.Go(func() error {
			r, err := client.Submit(gctx, req)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				if cfg.Verbose {
					log.Warn(gctx, "submission failed", logger.Int("index", i), logger.Error(err))
				}
				return nil
			}
			receipts[i] = &r
			if r.Duplicate {
				stats.Duplicates++
			} else {
				stats.Created++
			}
			stats.Tiers[int(r.Record.Tier)]++
			stats.Rules[r.Record.TierRule]++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return receipts, nil
}

// replay re-sends the first cfg.Replays successful requests with their
// original idempotency keys; each must come back as a duplicate of the
// stored record.
func replay(ctx context.Context, client *Client, cfg *Config, reqs []Request, receipts []*types.Receipt, stats *Stats, log logger.Logger) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	sent := 0
	for i := 0; i < len(reqs) && sent < cfg.Replays; i++ {
		if receipts[i] == nil {
			continue
		}
		sent++
		want := receipts[i].ID
		g.Go(func() error {
			r, err := client.Submit(gctx, reqs[i])

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				stats.Failed++
				log.Warn(gctx, "replay failed", logger.Int("index", i), logger.Error(err))
			case !r.Duplicate || r.ID != want:
				stats.Mismatched++
				log.Warn(gctx, "replay was not deduplicated",
					logger.String("want", want),
					logger.String("got", r.ID),
					logger.Bool("duplicate", r.Duplicate),
				)
			default:
				stats.Duplicates++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// verify fetches up to cfg.Sample stored records and checks that the
// stored scores match the receipts.
func verify(ctx context.Context, client *Client, cfg *Config, receipts []*types.Receipt, stats *Stats, log logger.Logger) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	checked := 0
	for _, r := range receipts {
		if checked >= cfg.Sample {
			break
		}
		if r == nil {
			continue
		}
		checked++
		g.Go(func() error {
			rec, err := client.Fetch(gctx, r.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				stats.Failed++
				log.Warn(gctx, "fetch failed", logger.String("id", r.ID), logger.Error(err))
			case rec.WellnessScore != r.Record.WellnessScore || rec.Tier != r.Record.Tier || rec.TierRule != r.Record.TierRule:
				stats.Mismatched++
				log.Warn(gctx, "stored record differs from receipt", logger.String("id", r.ID))
			default:
				stats.Fetched++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// save writes the generated requests to path as a JSON array.
func save(path string, reqs []Request) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(reqs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal submissions: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// report logs the final statistics and tier distribution.
func report(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Created+stats.Duplicates) / stats.Duration.Seconds()
	}

	fields := []logger.Field{
		logger.Int("generated", stats.Generated),
		logger.Int("created", stats.Created),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Int("fetched", stats.Fetched),
		logger.Int("mismatched", stats.Mismatched),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("submissionsPerSecond", perSecond),
	}
	for tier := 1; tier <= 3; tier++ {
		var share float64
		if stats.Created > 0 {
			share = float64(stats.Tiers[tier]) / float64(stats.Created) * percent
		}
		fields = append(fields, logger.Float64(fmt.Sprintf("tier%dPercent", tier), share))
	}
	fields = append(fields, logger.Any("rules", stats.Rules))

	log.Info(ctx, "load run finished", fields...)
}
