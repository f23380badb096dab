package scoring

import "errors"

// Sentinel kinds for scoring configuration errors. Scoring itself never fails.
var (
	ErrInvalidWeights = errors.New("invalid scoring weights")
)
