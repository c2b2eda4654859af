package rows

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alexberlino/atp/internal/domain/model"
)

var changePattern = regexp.MustCompile(`[+-]\d+`)

// Extractor converts validated rows into entries.
type Extractor struct {
	layout Layout
}

// NewExtractor builds an Extractor with the default layout unless overridden.
func NewExtractor(opts ...Option) *Extractor {
	s := defaults()
	for _, opt := range opts {
		opt(&s)
	}
	return &Extractor{layout: s.layout}
}

// Extract builds an entry from cells. Callers must have passed cells through
// Validator.Valid with the same layout; Extract does not re-check.
func (x *Extractor) Extract(cells []string) model.Entry {
	l := x.layout
	rank, _ := parseDigits(cells[l.Rank])
	age, _ := parseDigits(cells[l.Age])
	points, _ := parsePoints(cells[l.Points])

	e := model.Entry{
		Rank:    rank,
		Name:    strings.Join(strings.Fields(cells[l.Name]), " "),
		Age:     age,
		Country: strings.TrimSpace(cells[l.Country]),
		Points:  points,
	}
	if l.Change >= 0 && l.Change < len(cells) {
		e.Change = parseChange(cells[l.Change])
	}
	return e
}

func parseChange(s string) *int {
	m := changePattern.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &v
}
