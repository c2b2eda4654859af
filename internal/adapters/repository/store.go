// Package repository persists the ranking dataset and serves read queries
// over it.
package repository

import (
	"context"
	"time"

	"github.com/alexberlino/atp/internal/domain/model"
)

// Reader answers queries against the dataset for the read-only API.
type Reader interface {
	// Rank returns the entry at rank. Returns ErrNotFound if absent.
	Rank(ctx context.Context, rank int) (model.Entry, error)
	// TopN returns the first n entries by rank.
	TopN(ctx context.Context, n int) ([]model.Entry, error)
	// ByCountry returns every entry for a 3-letter country code, by rank.
	ByCountry(ctx context.Context, country string) ([]model.Entry, error)
	// Count returns the number of entries.
	Count(ctx context.Context) int
	// UpdatedAt returns the last-updated record.
	UpdatedAt(ctx context.Context) (time.Time, bool)
}
