package api

type options struct {
	maxBodyBytes int64
}

// Option configures the API server.
type Option func(*options)

// WithMaxBodyBytes caps the size of a submission body. Values <= 0 keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}
