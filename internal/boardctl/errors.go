package boardctl

import "errors"

var (
	// ErrRequest reports a transport failure talking to the service.
	ErrRequest = errors.New("request failed")
	// ErrRejected reports a non-success status returned by the service.
	ErrRejected = errors.New("rejected by service")
	// ErrNoView reports that the service has not published a view yet.
	ErrNoView = errors.New("no view published")
)
