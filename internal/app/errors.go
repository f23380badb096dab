package service

import (
	"errors"

	"github.com/okian/wellscreen/internal/domain/dedupe"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrSubmissionInFlight = dedupe.ErrInFlight
)
