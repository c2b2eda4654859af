// Package dedupe tracks which ranks a snapshot already holds.
package dedupe

// Deduper records seen ranks so the first occurrence of a rank wins.
type Deduper interface {
	// SeenAndRecord reports whether rank was already recorded and records it
	// if not.
	SeenAndRecord(rank int) bool

	Size() int
}

// rankSet implements Deduper with a map. Ranks are never evicted: a bounded
// set would let a late duplicate through. A rankSet belongs to one Build
// call and is not safe for concurrent use.
type rankSet struct {
	seen map[int]struct{}
	hint int
}

// NewRankSet creates an empty rank set.
func NewRankSet(opts ...Option) Deduper {
	d := &rankSet{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[int]struct{}, d.hint)
	return d
}

func (d *rankSet) SeenAndRecord(rank int) bool {
	if _, ok := d.seen[rank]; ok {
		return true
	}
	d.seen[rank] = struct{}{}
	return false
}

func (d *rankSet) Size() int {
	return len(d.seen)
}
