package sink

import (
	"sync/atomic"

	infinity "github.com/Code-Hex/go-infinity-channel"
)

// commandKind discriminates the two message kinds on the command queue.
type commandKind uint8

const (
	// cmdPublish carries a formatted record to the worker.
	cmdPublish commandKind = iota

	// cmdShutdown tells the worker to exit its loop. It is the only
	// termination signal; the queue is never closed under a producer
	// still holding the sink.
	cmdShutdown
)

// command is consumed exactly once by the worker and never persisted.
type command struct {
	kind    commandKind
	payload []byte
}

// commandQueue decouples the synchronous logging call site from the
// worker that owns the broker connection. Multi-producer, single
// consumer, FIFO. Send never blocks the caller.
type commandQueue interface {
	// Send enqueues a command without blocking. Callers must not Send
	// after CloseInput; the sink's closed flag enforces this.
	Send(cmd command)

	// Out is the worker's receive channel. It is closed once CloseInput
	// has been called and all buffered commands were delivered.
	Out() <-chan command

	// CloseInput stops accepting sends.
	CloseInput()

	// Dropped reports commands discarded by bounded policies.
	Dropped() uint64
}

// unboundedQueue is the default policy: sends are bounded only by memory,
// so the logging call path never feels broker backpressure. Under
// sustained broker unavailability the queue grows without limit; that is
// the documented trade, not a bug.
type unboundedQueue struct {
	ch *infinity.Channel[command]
}

func newUnboundedQueue() *unboundedQueue {
	return &unboundedQueue{ch: infinity.NewChannel[command]()}
}

func (q *unboundedQueue) Send(cmd command) {
	q.ch.In() <- cmd
}

func (q *unboundedQueue) Out() <-chan command {
	return q.ch.Out()
}

func (q *unboundedQueue) CloseInput() {
	q.ch.Close()
}

func (q *unboundedQueue) Dropped() uint64 {
	return 0
}

// boundedQueue caps memory at a fixed capacity and discards the oldest
// queued command when full. Chosen via sink.queue.policy: drop_oldest.
type boundedQueue struct {
	ch      chan command
	dropped atomic.Uint64
}

func newBoundedQueue(capacity int) *boundedQueue {
	return &boundedQueue{ch: make(chan command, capacity)}
}

func (q *boundedQueue) Send(cmd command) {
	for {
		select {
		case q.ch <- cmd:
			return
		default:
		}
		// Full: evict the oldest and retry. The consumer may win the
		// race for it, in which case nothing is dropped.
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

func (q *boundedQueue) Out() <-chan command {
	return q.ch
}

func (q *boundedQueue) CloseInput() {
	close(q.ch)
}

func (q *boundedQueue) Dropped() uint64 {
	return q.dropped.Load()
}
