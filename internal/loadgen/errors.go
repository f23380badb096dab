package loadgen

import "errors"

// Sentinel kinds for load run errors.
var (
	ErrInvalidConfig    = errors.New("invalid load config")
	ErrUnexpectedStatus = errors.New("unexpected status")
)
