// Package loadgen drives a running wellscreen service with generated
// screening submissions and reports how they were scored.
package loadgen

import (
	"fmt"
	"time"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Count      int           // Number of submissions to generate
	Workers    int           // Number of concurrent submitters
	Replays    int           // Submissions re-sent with their idempotency key
	Sample     int           // Stored records fetched back and checked
	Seed       uint64        // Generator seed; 0 picks one from the clock
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Optional JSON dump of generated submissions
	Verbose    bool          // Log every failed request
}

// Validate checks the run parameters.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: url must not be empty", ErrInvalidConfig)
	case c.Count <= 0:
		return fmt.Errorf("%w: count must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Replays < 0:
		return fmt.Errorf("%w: replays must not be negative", ErrInvalidConfig)
	case c.Sample < 0:
		return fmt.Errorf("%w: sample must not be negative", ErrInvalidConfig)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Created    int
	Duplicates int
	Failed     int
	Fetched    int
	Mismatched int
	Tiers      map[int]int
	Rules      map[string]int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

func newStats() *Stats {
	return &Stats{
		Tiers:     make(map[int]int),
		Rules:     make(map[string]int),
		StartTime: time.Now(),
	}
}
