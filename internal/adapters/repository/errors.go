package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrNotFound    = errors.New("term not cached")
	ErrInvalidTerm = errors.New("invalid term key")
)
