// Package publish announces a committed dataset to downstream systems.
// Publishing happens after the merge; a failure here never rolls the
// dataset back.
package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexberlino/atp/pkg/logger"
	"github.com/alexberlino/atp/pkg/metrics"
)

// ErrPublish wraps every publisher failure.
var ErrPublish = errors.New("publish failed")

// Notice describes a dataset change. It carries paths, not content.
type Notice struct {
	RunID       string    `json:"run_id"`
	Outcome     string    `json:"outcome"`
	Entries     int       `json:"entries"`
	UpdatedAt   time.Time `json:"updated_at"`
	DatasetPath string    `json:"dataset_path"`
	BackupPath  string    `json:"backup_path,omitempty"`
}

// Publisher pushes a notice somewhere.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, n Notice) error
}

// Multi runs publishers in order and joins their errors. One failing
// publisher does not stop the others.
type Multi struct {
	pubs []Publisher
	log  logger.Logger
}

// NewMulti fans a notice out to pubs.
func NewMulti(pubs ...Publisher) *Multi {
	return &Multi{pubs: pubs, log: logger.Get().Named("publish")}
}

// Len returns the number of publishers.
func (m *Multi) Len() int { return len(m.pubs) }

// Names lists the publishers in order.
func (m *Multi) Names() []string {
	out := make([]string, len(m.pubs))
	for i, p := range m.pubs {
		out[i] = p.Name()
	}
	return out
}

func (m *Multi) Name() string { return "multi" }

// Publish calls every publisher. The returned error wraps ErrPublish and
// every individual failure.
func (m *Multi) Publish(ctx context.Context, n Notice) error {
	var errs []error
	for _, p := range m.pubs {
		began := time.Now()
		if err := p.Publish(ctx, n); err != nil {
			metrics.RecordPublish(p.Name(), "failure")
			m.log.Error(ctx, "publisher failed", logger.String("publisher", p.Name()), logger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		metrics.RecordPublish(p.Name(), "success")
		m.log.Info(ctx, "published",
			logger.String("publisher", p.Name()),
			logger.String("run_id", n.RunID),
			logger.Duration("took", time.Since(began)),
		)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPublish, errors.Join(errs...))
}

// Message renders a one-line human summary of n.
func Message(n Notice) string {
	return fmt.Sprintf("ATP rankings %s: %d players, updated %s (run %s)",
		n.Outcome, n.Entries, n.UpdatedAt.UTC().Format(time.DateTime), n.RunID)
}
