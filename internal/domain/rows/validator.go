package rows

import (
	"math"
	"strings"
	"unicode"
)

// Validator is the row acceptance predicate. It never allocates and never
// reports why a row was rejected.
type Validator struct {
	layout Layout
	maxAge int
}

// NewValidator builds a Validator with the default layout unless overridden.
func NewValidator(opts ...Option) *Validator {
	s := defaults()
	for _, opt := range opts {
		opt(&s)
	}
	return &Validator{layout: s.layout, maxAge: s.maxAge}
}

// Valid reports whether cells form a well-formed ranking line.
func (v *Validator) Valid(cells []string) bool {
	l := v.layout
	if len(cells) < l.MinCells {
		return false
	}

	rank, ok := parseDigits(cells[l.Rank])
	if !ok || rank <= 0 {
		return false
	}
	if countTokens(cells[l.Name]) < 2 {
		return false
	}
	age, ok := parseDigits(cells[l.Age])
	if !ok || age <= 0 || age > v.maxAge {
		return false
	}
	if !isCountryCode(cells[l.Country]) {
		return false
	}
	_, ok = parsePoints(cells[l.Points])
	return ok
}

// parseDigits accepts a non-empty run of ASCII digits only. Signs, spaces
// inside the value and non-ASCII digits are rejected.
func parseDigits(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := int(c - '0')
		if n > (math.MaxInt-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}

// ParsePoints parses a points cell such as "11,830" or "9 540". Thousands
// separators are dropped; anything else but ASCII digits is rejected.
func ParsePoints(s string) (int, bool) {
	return parsePoints(s)
}

// parsePoints strips thousands separators before parsing digits.
func parsePoints(s string) (int, bool) {
	s = strings.TrimSpace(s)
	n, digits := 0, 0
	for _, r := range s {
		if isThousandsSeparator(r) {
			continue
		}
		if r < '0' || r > '9' {
			return 0, false
		}
		d := int(r - '0')
		if n > (math.MaxInt-d)/10 {
			return 0, false
		}
		n = n*10 + d
		digits++
	}
	return n, digits > 0
}

func isThousandsSeparator(r rune) bool {
	switch r {
	case ',', '.', '\'', ' ', '\u00a0', '\u202f':
		return true
	}
	return false
}

func countTokens(s string) int {
	n, in := 0, false
	for _, r := range s {
		if unicode.IsSpace(r) {
			in = false
			continue
		}
		if !in {
			n++
			in = true
		}
	}
	return n
}

func isCountryCode(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
