// Package fetch drives the load-and-parse loop with bounded linear retries.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/alexberlino/atp/internal/domain/model"
	"github.com/alexberlino/atp/internal/domain/snapshot"
	"github.com/alexberlino/atp/pkg/logger"
	"github.com/alexberlino/atp/pkg/metrics"
)

// Loader retrieves the ranking page and returns its table rows as cell
// texts. Any error is treated as transient.
type Loader interface {
	Load(ctx context.Context, url string) ([][]string, error)
}

// Builder turns table rows into a snapshot.
type Builder interface {
	Build(ctx context.Context, table [][]string) (model.Snapshot, snapshot.Stats, error)
}

// Report describes a finished Fetch.
type Report struct {
	Attempts int
	State    State
	Stats    snapshot.Stats // builder stats of the last attempt that parsed
	Elapsed  time.Duration
}

// Orchestrator fetches one snapshot, retrying failed attempts. It runs a
// single fetch at a time and blocks while waiting between attempts.
type Orchestrator struct {
	loader         Loader
	builder        Builder
	url            string
	maxAttempts    int
	baseDelay      time.Duration
	maxDelay       time.Duration
	attemptTimeout time.Duration
	observer       Observer
	timer          backoff.Timer
	log            logger.Logger
}

// NewOrchestrator wires a loader and builder for url.
func NewOrchestrator(loader Loader, builder Builder, url string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		loader:         loader,
		builder:        builder,
		url:            url,
		maxAttempts:    DefaultMaxAttempts,
		baseDelay:      DefaultBaseDelay,
		maxDelay:       DefaultMaxDelay,
		attemptTimeout: DefaultAttemptTimeout,
		log:            logger.Get().Named("fetch"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Fetch returns the first snapshot that loads and parses with at least one
// entry. Network errors, render timeouts, a missing table and an empty
// snapshot are all retried until no attempts remain, after which
// ErrExhausted wraps the last cause. Cancelling ctx stops the loop.
func (o *Orchestrator) Fetch(ctx context.Context) (model.Snapshot, Report, error) {
	start := time.Now()
	rep := Report{State: StateIdle}
	o.emit(Event{State: StateIdle})

	var (
		result  model.Snapshot
		lastErr error
	)

	operation := func() error {
		rep.Attempts++
		snap, stats, parsed, err := o.attempt(ctx, rep.Attempts)
		if parsed {
			rep.Stats = stats
		}
		if err != nil {
			lastErr = err
			rep.State = StateFailed
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		result = snap
		rep.State = StateDone
		return nil
	}

	notify := func(err error, delay time.Duration) {
		o.emit(Event{Attempt: rep.Attempts, State: StateFailed, Delay: delay, Err: err})
		o.log.Warn(ctx, "fetch attempt failed, retrying",
			logger.Int("attempt", rep.Attempts),
			logger.Int("max_attempts", o.maxAttempts),
			logger.Duration("delay", delay),
			logger.Error(err),
		)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: o.baseDelay, max: o.maxDelay}, uint64(o.maxAttempts-1)),
		ctx,
	)

	err := backoff.RetryNotifyWithTimer(operation, policy, notify, o.timer)
	rep.Elapsed = time.Since(start)
	if err == nil {
		return result, rep, nil
	}

	if ctx.Err() != nil {
		return model.Snapshot{}, rep, fmt.Errorf("fetch cancelled after %d attempts: %w", rep.Attempts, ctx.Err())
	}
	o.emit(Event{Attempt: rep.Attempts, State: StateFailed, Err: lastErr})
	o.log.Error(ctx, "fetch attempts exhausted",
		logger.Int("attempts", rep.Attempts),
		logger.Error(lastErr),
	)
	return model.Snapshot{}, rep, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, rep.Attempts, lastErr)
}

// attempt runs one Fetching -> Parsing -> Done cycle under the per-attempt
// timeout. parsed reports whether the builder ran.
func (o *Orchestrator) attempt(ctx context.Context, n int) (model.Snapshot, snapshot.Stats, bool, error) {
	began := time.Now()
	actx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	o.emit(Event{Attempt: n, State: StateFetching})
	table, err := o.loader.Load(actx, o.url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("attempt timed out after %s: %w", o.attemptTimeout, err)
		}
		metrics.RecordFetchAttempt("failure", time.Since(began))
		return model.Snapshot{}, snapshot.Stats{}, false, err
	}

	o.emit(Event{Attempt: n, State: StateParsing, Rows: len(table)})
	snap, stats, err := o.builder.Build(actx, table)
	if err != nil {
		metrics.RecordFetchAttempt("failure", time.Since(began))
		return model.Snapshot{}, stats, true, err
	}

	metrics.RecordFetchAttempt("success", time.Since(began))
	o.emit(Event{Attempt: n, State: StateDone, Rows: len(table), Entries: snap.Len()})
	o.log.Info(ctx, "fetch attempt succeeded",
		logger.Int("attempt", n),
		logger.Int("rows", len(table)),
		logger.Int("entries", snap.Len()),
		logger.Int("invalid", stats.Invalid),
		logger.Duration("took", time.Since(began)),
	)
	return snap, stats, true, nil
}

func (o *Orchestrator) emit(ev Event) {
	if o.observer != nil {
		o.observer(ev)
	}
}
