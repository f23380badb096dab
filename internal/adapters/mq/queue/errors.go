package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrQueueFull   = errors.New("escalation queue full")
	ErrQueueClosed = errors.New("escalation queue closed")
)
