// Package merge reconciles a fresh snapshot with the persisted dataset.
package merge

import (
	"context"
	"fmt"
	"time"

	"github.com/alexberlino/atp/internal/domain/model"
	"github.com/alexberlino/atp/pkg/logger"
	"github.com/alexberlino/atp/pkg/metrics"
)

// Outcome is what a merge did to the dataset.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeCreated
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	}
	return "unchanged"
}

// Changed reports whether the dataset was written.
func (o Outcome) Changed() bool { return o != OutcomeUnchanged }

// Result describes a finished merge.
type Result struct {
	Outcome     Outcome
	Entries     int
	BackupPath  string // set on OutcomeUpdated
	ArchivePath string // set when archiving is enabled and the dataset changed
	UpdatedAt   time.Time
}

// Merger is the only writer of the dataset.
type Merger struct {
	store    Store
	archiver Archiver
	now      func() time.Time
	log      logger.Logger
}

// NewMerger creates a Merger over store.
func NewMerger(store Store, opts ...Option) *Merger {
	m := &Merger{
		store: store,
		now:   time.Now,
		log:   logger.Get().Named("merge"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge commits snap if it differs from the stored table.
//
//   - no dataset: write snap, then the timestamp (OutcomeCreated);
//   - equal entries: touch nothing (OutcomeUnchanged);
//   - otherwise: back up the current file, replace it, then write the
//     timestamp (OutcomeUpdated).
//
// Equality is exact over every field of every entry in order.
func (m *Merger) Merge(ctx context.Context, snap model.Snapshot) (Result, error) {
	if err := snap.Validate(); err != nil {
		metrics.RecordMerge("error")
		return Result{}, fmt.Errorf("%w: %w", ErrMerge, err)
	}

	current, found, err := m.store.Load(ctx)
	if err != nil {
		return m.fail(ctx, "load", err)
	}

	res := Result{Entries: snap.Len()}
	now := m.now()

	switch {
	case !found:
		res.Outcome = OutcomeCreated
	case model.EntriesEqual(current, snap.Entries):
		res.Outcome = OutcomeUnchanged
		metrics.RecordMerge(res.Outcome.String())
		metrics.UpdateDatasetEntries(len(current))
		m.log.Info(ctx, "snapshot unchanged, dataset left as is", logger.Int("entries", len(current)))
		return res, nil
	default:
		res.Outcome = OutcomeUpdated
		res.BackupPath, err = m.store.Backup(ctx, now)
		if err != nil {
			return m.fail(ctx, "backup", err)
		}
		metrics.RecordBackup()
	}

	if err := m.store.Replace(ctx, snap.Entries); err != nil {
		return m.fail(ctx, "replace", err)
	}
	if err := m.store.WriteTimestamp(ctx, now); err != nil {
		return m.fail(ctx, "timestamp", err)
	}
	res.UpdatedAt = now

	if m.archiver != nil {
		path, err := m.archiver.Archive(ctx, snap.Entries, now)
		if err != nil {
			// The dataset of record is already committed.
			m.log.Warn(ctx, "archive copy failed", logger.Error(err))
		}
		res.ArchivePath = path
	}

	metrics.RecordMerge(res.Outcome.String())
	metrics.UpdateDatasetEntries(res.Entries)
	m.log.Info(ctx, "dataset committed",
		logger.String("outcome", res.Outcome.String()),
		logger.Int("entries", res.Entries),
		logger.Int("previous", len(current)),
		logger.String("backup", res.BackupPath),
	)
	return res, nil
}

func (m *Merger) fail(ctx context.Context, step string, err error) (Result, error) {
	metrics.RecordMerge("error")
	m.log.Error(ctx, "merge aborted", logger.String("step", step), logger.Error(err))
	return Result{}, fmt.Errorf("%w: %s: %w", ErrMerge, step, err)
}
