package fetch

import "errors"

// ErrExhausted is returned when every attempt failed. It wraps the last cause.
var ErrExhausted = errors.New("fetch attempts exhausted")
