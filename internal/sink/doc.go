// Package sink relays application log records to an MQTT broker.
//
// The point of the design is that a logging call never waits on the
// network. Records are level-gated and formatted on the caller's
// goroutine, then handed over a multi-producer FIFO command queue to a
// single worker goroutine that exclusively owns the broker connection,
// its connect-retry policy, and the publish loop.
//
//	caller → Sink.Handle → [level gate] → formatter → queue → worker → broker
//
// # Lifecycle
//
// New spawns the worker and returns immediately; records logged before
// the broker connection exists are buffered and flushed once it is
// established. Close enqueues the shutdown command, waits for the worker
// to finish, and surfaces its terminal error. FIFO ordering guarantees
// every record enqueued before Close has been handled when Close
// returns; records offered afterwards fail with ErrSinkClosed, and a
// second Close fails with ErrAlreadyClosed.
//
// # Failure policy
//
// Broker unreachability at startup is retried forever. A publish failure
// after the connection was established follows sink.on_publish_error:
// "drop" (log locally and continue) or "abort" (stop the worker and
// surface the error from Close). Either way the failure is observable
// via Err, Stats, and the diagnostics logger, never silent.
//
// # Host integration
//
// Sink implements slog.Handler, so it plugs into log/slog directly,
// composes with other handlers via MultiHandler, and becomes the
// process-wide logger via Install or Init.
package sink
