package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for storage errors.
var (
	ErrNotFound         = errors.New("record not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreClosed      = fmt.Errorf("%w: closed", ErrStoreUnavailable)
	ErrUnknownDriver    = errors.New("unknown store driver")
	ErrMissingStorePath = errors.New("store path required")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
