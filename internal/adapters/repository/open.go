package repository

import (
	"context"
	"fmt"
)

// Open builds the store named by driver. path is the database file for
// sqlite and the ledger root for jsonl; memory ignores it.
func Open(ctx context.Context, driver, path string, opts ...Option) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, path, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverJSONL:
		s, err := OpenJSONL(path, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
