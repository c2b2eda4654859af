package merge

import (
	"time"

	"github.com/alexberlino/atp/pkg/logger"
)

// Option configures a Merger.
type Option func(*Merger)

// WithClock overrides time.Now for backup names and the timestamp.
func WithClock(now func() time.Time) Option {
	return func(m *Merger) {
		if now != nil {
			m.now = now
		}
	}
}

// WithArchiver keeps a dated copy of every committed snapshot.
func WithArchiver(a Archiver) Option {
	return func(m *Merger) {
		m.archiver = a
	}
}

// WithLogger sets the merger's logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Merger) {
		if l != nil {
			m.log = l
		}
	}
}
