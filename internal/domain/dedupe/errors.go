package dedupe

import "errors"

// ErrInFlight reports that another submission holds the idempotency key.
var ErrInFlight = errors.New("idempotency key in flight")
