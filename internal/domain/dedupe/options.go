package dedupe

// Option applies a configuration option to the rank set.
type Option func(*rankSet)

// WithSizeHint pre-sizes the set for the expected number of rows.
func WithSizeHint(n int) Option {
	return func(d *rankSet) {
		if n > 0 {
			d.hint = n
		}
	}
}
