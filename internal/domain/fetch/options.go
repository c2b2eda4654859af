package fetch

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/alexberlino/atp/pkg/logger"
)

// Defaults for the retry loop.
const (
	DefaultMaxAttempts    = 3
	DefaultBaseDelay      = 5 * time.Second
	DefaultMaxDelay       = time.Minute
	DefaultAttemptTimeout = 90 * time.Second
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxAttempts bounds the number of attempts, first one included.
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithDelays sets the linear backoff base and its cap. A zero cap leaves the
// wait uncapped.
func WithDelays(base, max time.Duration) Option {
	return func(o *Orchestrator) {
		if base >= 0 {
			o.baseDelay = base
		}
		if max >= 0 {
			o.maxDelay = max
		}
	}
}

// WithAttemptTimeout bounds one attempt, load and parse together.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.attemptTimeout = d
		}
	}
}

// WithObserver registers a callback for state transitions.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// WithTimer replaces the wall-clock timer used between attempts.
func WithTimer(t backoff.Timer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.timer = t
		}
	}
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}
