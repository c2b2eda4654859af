// Package rows turns raw ranking-table rows into entries.
//
// A row is the trimmed text of each cell, in column order. The Validator
// decides whether a row is a real ranking line; the Extractor converts a
// validated row into a model.Entry.
package rows

import "slices"

// Layout gives the column index of each field.
type Layout struct {
	Rank    int
	Name    int
	Age     int
	Country int
	Points  int
	Change  int // optional column
	// MinCells is the shortest row that can hold every mandatory column.
	MinCells int
}

// DefaultLayout matches the live ranking table: rank, two unused columns,
// name, age, country, points, then an optional rank change.
var DefaultLayout = Layout{
	Rank:     0,
	Name:     3,
	Age:      4,
	Country:  5,
	Points:   6,
	Change:   7,
	MinCells: 7,
}

// DefaultMaxAge is the oldest accepted age.
const DefaultMaxAge = 99

// Option configures a Validator or Extractor.
type Option func(*settings)

type settings struct {
	layout Layout
	maxAge int
}

func defaults() settings {
	return settings{layout: DefaultLayout, maxAge: DefaultMaxAge}
}

// WithLayout overrides the column positions. A layout with a negative
// mandatory index is ignored. MinCells is raised to cover the highest
// mandatory index, so rows too short for the layout are rejected.
func WithLayout(l Layout) Option {
	return func(s *settings) {
		mandatory := []int{l.Rank, l.Name, l.Age, l.Country, l.Points}
		if slices.Min(mandatory) < 0 {
			return
		}
		l.MinCells = max(l.MinCells, slices.Max(mandatory)+1)
		s.layout = l
	}
}

// WithMaxAge sets the oldest accepted age.
func WithMaxAge(age int) Option {
	return func(s *settings) {
		if age > 0 {
			s.maxAge = age
		}
	}
}
