package warmlib

import "errors"

var (
	// ErrNoPlayableSource is returned when a reported element carries
	// neither a src attribute nor a <source> child.
	ErrNoPlayableSource = errors.New("element has no playable source")
	// ErrFetchStatus is returned when the origin answers a warm fetch
	// with a non-success HTTP status.
	ErrFetchStatus = errors.New("unexpected http status")
	// ErrSchedulerClosed is returned when an operation reaches a
	// scheduler that has been shut down.
	ErrSchedulerClosed = errors.New("scheduler is closed")
)
