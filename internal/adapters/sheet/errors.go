package sheet

import "errors"

// Sentinel kinds for data-source errors.
var (
	// ErrFetch covers every way a roster can fail to arrive: transport,
	// HTTP status, gviz error status or an unreadable payload.
	ErrFetch = errors.New("fetch failed")
	// ErrNoSheet is returned when the client has no sheet id.
	ErrNoSheet = errors.New("no sheet configured")
)
