package snapshot

import (
	"time"

	"github.com/alexberlino/atp/internal/domain/rows"
	"github.com/alexberlino/atp/pkg/logger"
)

// DefaultMaxConsecutiveInvalid is the trailer cutoff used when none is set.
const DefaultMaxConsecutiveInvalid = 25

// Option configures a Builder.
type Option func(*Builder)

// WithMaxConsecutiveInvalid sets how many invalid rows may follow the valid
// region before the scan stops. Zero or less disables the cutoff.
func WithMaxConsecutiveInvalid(n int) Option {
	return func(b *Builder) {
		b.maxConsecutiveInvalid = n
	}
}

// WithRowOptions passes layout and age settings to the validator and extractor.
func WithRowOptions(opts ...rows.Option) Option {
	return func(b *Builder) {
		b.validator = rows.NewValidator(opts...)
		b.extractor = rows.NewExtractor(opts...)
	}
}

// WithClock overrides time.Now for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithSource stamps built snapshots with the page they came from.
func WithSource(src string) Option {
	return func(b *Builder) {
		b.source = src
	}
}

// WithLogger sets the builder's logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}
