package model

import "errors"

// Sentinel kinds for event submission.
var (
	ErrNotStarted   = errors.New("board not started")
	ErrInvalidEvent = errors.New("invalid event")
	ErrBackpressure = errors.New("event queue full")
)
