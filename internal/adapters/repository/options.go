package repository

import "github.com/google/uuid"

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	newID func() string
}

func defaultOptions() options {
	return options{newID: uuid.NewString}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithIDGenerator replaces the random UUID generator used for storage ids.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}
