package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotFound     = errors.New("ranking entry not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrBadHeader    = errors.New("dataset header mismatch")
	ErrCorrupt      = errors.New("dataset row malformed")
	ErrNoDataset    = errors.New("dataset does not exist")
)
