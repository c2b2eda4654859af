package snapshot

import "errors"

// ErrNoData is returned when no row in the table passed validation.
var ErrNoData = errors.New("no valid ranking rows")
