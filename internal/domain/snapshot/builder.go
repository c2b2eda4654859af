// Package snapshot assembles validated rows into an ordered ranking snapshot.
package snapshot

import (
	"context"
	"sort"
	"time"

	"github.com/alexberlino/atp/internal/domain/dedupe"
	"github.com/alexberlino/atp/internal/domain/model"
	"github.com/alexberlino/atp/internal/domain/rows"
	"github.com/alexberlino/atp/pkg/logger"
	"github.com/alexberlino/atp/pkg/metrics"
)

const sampleSize = 5

// Stats summarizes one Build call.
type Stats struct {
	Rows       int  // rows examined
	Valid      int  // rows accepted, duplicates included
	Invalid    int  // rows rejected by the validator
	Duplicates int  // valid rows dropped because their rank was already taken
	Truncated  bool // the trailer cutoff stopped the scan early
}

// Builder applies the row validator and extractor over a table.
type Builder struct {
	validator             *rows.Validator
	extractor             *rows.Extractor
	maxConsecutiveInvalid int
	now                   func() time.Time
	source                string
	log                   logger.Logger
}

// NewBuilder creates a Builder with the default row layout.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		validator:             rows.NewValidator(),
		extractor:             rows.NewExtractor(),
		maxConsecutiveInvalid: DefaultMaxConsecutiveInvalid,
		now:                   time.Now,
		log:                   logger.Get().Named("snapshot"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build turns raw rows into a snapshot sorted by rank. Header and decoration
// rows are skipped silently. Once valid rows have started, a run of more than
// the configured number of invalid rows ends the scan. The first row for a
// rank wins. ErrNoData is returned when nothing is accepted.
func (b *Builder) Build(ctx context.Context, table [][]string) (model.Snapshot, Stats, error) {
	var st Stats
	seen := dedupe.NewRankSet(dedupe.WithSizeHint(len(table)))
	entries := make([]model.Entry, 0, len(table))

	started := false
	streak := 0
	for _, cells := range table {
		st.Rows++
		if !b.validator.Valid(cells) {
			st.Invalid++
			if started {
				streak++
				if b.maxConsecutiveInvalid > 0 && streak > b.maxConsecutiveInvalid {
					st.Truncated = true
					break
				}
			}
			continue
		}
		started = true
		streak = 0
		st.Valid++

		e := b.extractor.Extract(cells)
		if seen.SeenAndRecord(e.Rank) {
			st.Duplicates++
			continue
		}
		entries = append(entries, e)
	}

	metrics.RecordRows(st.Valid-st.Duplicates, st.Invalid, st.Duplicates)

	if len(entries) == 0 {
		b.log.Warn(ctx, "no valid rows in table", logger.Int("rows", st.Rows))
		return model.Snapshot{}, st, ErrNoData
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })

	snap := model.Snapshot{Entries: entries, FetchedAt: b.now().UTC(), Source: b.source}
	metrics.UpdateSnapshotEntries(len(entries))

	b.log.Debug(ctx, "snapshot built",
		logger.Int("rows", st.Rows),
		logger.Int("entries", len(entries)),
		logger.Int("invalid", st.Invalid),
		logger.Int("duplicates", st.Duplicates),
		logger.Bool("truncated", st.Truncated),
		logger.Any("sample", entries[:min(sampleSize, len(entries))]),
	)
	return snap, st, nil
}
