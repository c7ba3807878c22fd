package sink

import "errors"

// Domain-specific errors for sink operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrSinkClosed is returned when a record is handed to a sink whose
	// worker has already been torn down. This is a programming error in
	// the caller's lifecycle management, not a runtime condition the sink
	// recovers from.
	ErrSinkClosed = errors.New("sink: record sent after close")

	// ErrAlreadyClosed is returned by a second Close on the same sink.
	// The worker handle is consumed exactly once; a double teardown
	// indicates a lifecycle bug and is reported rather than deadlocking
	// or silently succeeding.
	ErrAlreadyClosed = errors.New("sink: already closed")

	// ErrInvalidPayload is returned when the formatter produced bytes
	// that are not valid UTF-8. The record is skipped, not published.
	ErrInvalidPayload = errors.New("sink: formatted record is not valid UTF-8")

	// ErrWorkerFailed wraps the terminal error of a worker that stopped
	// before shutdown (connection construction failure, or a publish
	// failure under the abort policy). Surfaced by Err and Close.
	ErrWorkerFailed = errors.New("sink: worker terminated abnormally")
)
