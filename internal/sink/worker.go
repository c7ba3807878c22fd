package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmweis/mqttsink/internal/infrastructure/config"
	"github.com/dmweis/mqttsink/internal/infrastructure/logging"
)

// Publisher is the broker client as the worker sees it. Connect blocks
// until the broker is reachable or ctx is cancelled; the retry policy
// lives behind this interface.
//
// The concrete implementation is mqtt.Client; tests substitute fakes.
type Publisher interface {
	Connect(ctx context.Context) error
	Publish(topic string, payload []byte) error
	Close() error
}

// worker is the connection supervisor: a single goroutine that owns the
// broker connection exclusively and drains the command queue. No other
// goroutine touches the publisher after the worker starts.
type worker struct {
	pub    Publisher
	topic  string
	queue  <-chan command
	policy string
	log    *logging.Logger

	// done is closed when run returns; the shutdown protocol waits on it.
	done chan struct{}

	published atomic.Uint64
	dropped   atomic.Uint64

	errMu sync.Mutex
	err   error
}

func newWorker(pub Publisher, topic string, queue <-chan command, policy string, log *logging.Logger) *worker {
	return &worker{
		pub:    pub,
		topic:  topic,
		queue:  queue,
		policy: policy,
		log:    log,
		done:   make(chan struct{}),
	}
}

// run is the worker goroutine body.
//
// States:
//   - connecting: Publisher.Connect retries until the broker appears or
//     ctx is cancelled by teardown. A terminal connect error stops the
//     worker before the loop; records keep queueing but are never
//     published. That failure is recorded (Err) and logged, never silent.
//   - running: receive commands until shutdown. Publish failures follow
//     the configured policy: drop (log and continue) or abort (record
//     the error and stop).
//
// On shutdown the worker breaks immediately. FIFO delivery means every
// command enqueued before the shutdown command has already been handled;
// anything enqueued after it is never published.
func (w *worker) run(ctx context.Context) {
	defer close(w.done)
	defer w.pub.Close()

	if err := w.pub.Connect(ctx); err != nil {
		// Classify by the error itself, not by ctx state: teardown may
		// cancel ctx concurrently with Connect returning a genuine
		// terminal error, and that error must still be recorded.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Teardown while still connecting; nothing to flush.
			w.log.Debug("connection attempt cancelled by shutdown")
			return
		}
		w.setErr(fmt.Errorf("%w: %w", ErrWorkerFailed, err))
		w.log.Error("broker connection failed, log relay disabled", "error", err)
		return
	}
	w.log.Info("connected to broker", "topic", w.topic)

	for cmd := range w.queue {
		switch cmd.kind {
		case cmdPublish:
			if err := w.pub.Publish(w.topic, cmd.payload); err != nil {
				w.dropped.Add(1)
				if w.policy == config.PublishErrorAbort {
					w.setErr(fmt.Errorf("%w: %w", ErrWorkerFailed, err))
					w.log.Error("publish failed, stopping worker", "error", err)
					return
				}
				w.log.Warn("publish failed, dropping record", "error", err)
				continue
			}
			w.published.Add(1)
		case cmdShutdown:
			w.log.Debug("shutdown received", "published", w.published.Load())
			return
		}
	}
}

// setErr records the worker's terminal error. First error wins.
func (w *worker) setErr(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

// Err returns the worker's terminal error, or nil while healthy.
func (w *worker) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}
