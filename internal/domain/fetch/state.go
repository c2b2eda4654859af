package fetch

import "time"

// State is a step of a single fetch attempt.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateParsing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateParsing:
		return "parsing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Event is emitted on every state transition.
type Event struct {
	Attempt int
	State   State
	Rows    int           // rows returned by the loader, set from Parsing on
	Entries int           // snapshot size, set on Done
	Delay   time.Duration // wait before the next attempt, set on Failed
	Err     error         // cause, set on Failed
}

// Observer receives events synchronously on the fetching goroutine.
type Observer func(Event)
