package repository

import "errors"

// Sentinel kinds for snapshot errors.
var (
	ErrNotFound  = errors.New("snapshot not found")
	ErrMalformed = errors.New("malformed snapshot")
	ErrWrite     = errors.New("snapshot write failed")
)
