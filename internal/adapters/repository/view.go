package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/alexberlino/atp/internal/domain/model"
	"github.com/alexberlino/atp/pkg/logger"
	"github.com/alexberlino/atp/pkg/metrics"
)

// View is an in-memory, read-only index over a CSVStore. It reloads the
// dataset whenever the file's modification time changes, so it follows the
// merger's atomic replacements without coordination. If a reload fails the
// last good copy keeps serving.
type View struct {
	store *CSVStore
	log   logger.Logger

	mu        sync.RWMutex
	entries   []model.Entry
	byRank    map[int]int
	modTime   time.Time
	size      int64
	updatedAt time.Time
	hasStamp  bool
}

var _ Reader = (*View)(nil)

// NewView creates a view over store. Nothing is read until first use.
func NewView(store *CSVStore) *View {
	return &View{
		store:  store,
		log:    logger.Get().Named("view"),
		byRank: map[int]int{},
	}
}

// Refresh reloads the dataset if it changed on disk.
func (v *View) Refresh(ctx context.Context) error {
	fi, err := os.Stat(v.store.Path())
	if errors.Is(err, os.ErrNotExist) {
		v.swap(nil, nil, time.Time{}, false)
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat dataset: %w", err)
	}

	v.mu.RLock()
	fresh := fi.ModTime().Equal(v.modTime) && fi.Size() == v.size
	v.mu.RUnlock()
	if fresh {
		return nil
	}

	entries, _, err := v.store.Load(ctx)
	if err != nil {
		return err
	}
	stamp, ok, err := v.store.ReadTimestamp(ctx)
	if err != nil {
		v.log.Warn(ctx, "last-updated record unreadable", logger.Error(err))
	}
	v.swap(entries, fi, stamp, ok)
	metrics.UpdateDatasetEntries(len(entries))
	v.log.Info(ctx, "dataset view reloaded", logger.Int("entries", len(entries)))
	return nil
}

func (v *View) swap(entries []model.Entry, fi os.FileInfo, stamp time.Time, hasStamp bool) {
	idx := make(map[int]int, len(entries))
	for i, e := range entries {
		idx[e.Rank] = i
	}
	v.mu.Lock()
	v.entries = entries
	v.byRank = idx
	v.modTime, v.size = time.Time{}, 0
	if fi != nil {
		v.modTime, v.size = fi.ModTime(), fi.Size()
	}
	v.updatedAt = stamp
	v.hasStamp = hasStamp
	v.mu.Unlock()
}

func (v *View) refresh(ctx context.Context) {
	if err := v.Refresh(ctx); err != nil {
		v.log.Error(ctx, "dataset reload failed, serving previous copy", logger.Error(err))
	}
}

// Rank returns the entry at rank.
func (v *View) Rank(ctx context.Context, rank int) (model.Entry, error) {
	v.refresh(ctx)
	v.mu.RLock()
	defer v.mu.RUnlock()
	i, ok := v.byRank[rank]
	if !ok {
		return model.Entry{}, ErrNotFound
	}
	return v.entries[i], nil
}

// TopN returns up to n entries from the top of the table.
func (v *View) TopN(ctx context.Context, n int) ([]model.Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	v.refresh(ctx)
	v.mu.RLock()
	defer v.mu.RUnlock()
	n = min(n, len(v.entries))
	out := make([]model.Entry, n)
	copy(out, v.entries[:n])
	return out, nil
}

// ByCountry returns every entry whose country matches, case-insensitively.
func (v *View) ByCountry(ctx context.Context, country string) ([]model.Entry, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	v.refresh(ctx)
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := []model.Entry{}
	for _, e := range v.entries {
		if e.Country == country {
			out = append(out, e)
		}
	}
	return out, nil
}

// Count returns the number of entries.
func (v *View) Count(ctx context.Context) int {
	v.refresh(ctx)
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// UpdatedAt returns the last-updated record.
func (v *View) UpdatedAt(ctx context.Context) (time.Time, bool) {
	v.refresh(ctx)
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.updatedAt, v.hasStamp
}
