package attemptlog

import "errors"

var (
	// ErrWriterClosed is returned by Record after Close.
	ErrWriterClosed = errors.New("attempt writer is closed")

	// ErrStreamWrite wraps failures appending to a Redis stream.
	ErrStreamWrite = errors.New("failed to append attempt to stream")
)
