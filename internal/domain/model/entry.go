// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSnapshot marks a snapshot that breaks the ordering or
// uniqueness rules, or holds no entries.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Entry is one player's line in the ranking table.
type Entry struct {
	Rank    int    `json:"rank"`
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Country string `json:"country"` // ISO-like 3-letter code
	Points  int    `json:"points"`
	Change  *int   `json:"change,omitempty"` // signed rank delta, nil when absent
}

// Equal reports whether e and o carry identical values. A nil change differs
// from a zero change.
func (e Entry) Equal(o Entry) bool {
	if e.Rank != o.Rank || e.Name != o.Name || e.Age != o.Age ||
		e.Country != o.Country || e.Points != o.Points {
		return false
	}
	if e.Change == nil || o.Change == nil {
		return e.Change == nil && o.Change == nil
	}
	return *e.Change == *o.Change
}

// Snapshot is one fetch's complete ranking, sorted by rank.
type Snapshot struct {
	Entries   []Entry   `json:"entries"`
	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source,omitempty"`
}

// Len returns the number of entries.
func (s Snapshot) Len() int { return len(s.Entries) }

// Validate checks that s is non-empty with unique, strictly ascending ranks.
func (s Snapshot) Validate() error {
	if len(s.Entries) == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalidSnapshot)
	}
	prev := 0
	for i, e := range s.Entries {
		if e.Rank <= prev {
			return fmt.Errorf("%w: rank %d at position %d after rank %d", ErrInvalidSnapshot, e.Rank, i, prev)
		}
		prev = e.Rank
	}
	return nil
}

// Equal compares entries only; fetch metadata is ignored.
func (s Snapshot) Equal(o Snapshot) bool {
	return EntriesEqual(s.Entries, o.Entries)
}

// EntriesEqual reports whether a and b hold the same entries in the same order.
func EntriesEqual(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so the receiver can hand off entries without
// sharing change pointers.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Entries = make([]Entry, len(s.Entries))
	for i, e := range s.Entries {
		if e.Change != nil {
			c := *e.Change
			e.Change = &c
		}
		out.Entries[i] = e
	}
	return out
}

// IntPtr is a helper for building entries with a change value.
func IntPtr(v int) *int { return &v }
