package merge

import (
	"context"
	"time"

	"github.com/alexberlino/atp/internal/domain/model"
)

// Store is the dataset of record: the current table, its dated backups and
// the last-updated record. The merger is its only writer.
type Store interface {
	// Load returns the current entries. found is false when no dataset exists.
	Load(ctx context.Context) (entries []model.Entry, found bool, err error)
	// Backup copies the current dataset to a dated file and returns its path.
	// A second backup on the same day overwrites the first.
	Backup(ctx context.Context, day time.Time) (string, error)
	// Replace atomically swaps the dataset for entries.
	Replace(ctx context.Context, entries []model.Entry) error
	// WriteTimestamp records when the dataset last changed.
	WriteTimestamp(ctx context.Context, at time.Time) error
}

// Archiver keeps a dated copy of each newly merged table.
type Archiver interface {
	Archive(ctx context.Context, entries []model.Entry, day time.Time) (string, error)
}
