package fetch

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff waits base*n before the n-th retry, capped at max.
type linearBackOff struct {
	base time.Duration
	max  time.Duration
	n    int
}

var _ backoff.BackOff = (*linearBackOff)(nil)

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	d := b.base * time.Duration(b.n)
	if b.max > 0 && d > b.max {
		return b.max
	}
	return d
}

func (b *linearBackOff) Reset() { b.n = 0 }
