package merge

import "errors"

// ErrMerge wraps any failure while committing a snapshot. The dataset of
// record is unchanged when it is returned, apart from a possibly written
// backup. A snapshot refused before any I/O also wraps
// model.ErrInvalidSnapshot.
var ErrMerge = errors.New("merge failed")
