package source

import "errors"

// Sentinel kinds for page loading. All of them are transient for the fetch
// loop.
var (
	ErrTableNotFound = errors.New("ranking table not found")
	ErrRenderTimeout = errors.New("ranking table did not render in time")
	ErrHTTPStatus    = errors.New("unexpected http status")
)
