package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/dmweis/mqttsink/internal/format"
	"github.com/dmweis/mqttsink/internal/infrastructure/config"
	"github.com/dmweis/mqttsink/internal/infrastructure/logging"
	"github.com/dmweis/mqttsink/internal/infrastructure/mqtt"
)

// Formatter turns one record into the bytes published to the broker.
// An empty result means "publish nothing" (e.g. a filtered-out record).
// Called synchronously on the logging caller's goroutine.
type Formatter interface {
	Format(buf *bytes.Buffer, rec slog.Record, attrs []slog.Attr, groups []string) error
}

// Sink relays log records to an MQTT broker without blocking the logging
// call on network I/O. It implements slog.Handler; records pass a level
// gate, are formatted on the caller's goroutine, and the resulting bytes
// travel over the command queue to the worker goroutine that owns the
// broker connection.
//
// WithAttrs and WithGroup return clones sharing the queue and worker:
// cloned handlers are additional producers on the same sink instance.
// Exactly one teardown is allowed per instance, via Close.
type Sink struct {
	shared *shared

	// attrs are handler-bound attributes, already qualified with the
	// group path that was open when they were added.
	attrs []slog.Attr

	// groups are the open group names, applied to per-record attributes.
	groups []string
}

// shared is the state common to a sink and all its clones.
type shared struct {
	level     slog.Level
	formatter Formatter
	fmtCfg    config.FormatConfig
	topic     string
	queue     commandQueue
	worker    *worker
	log       *logging.Logger

	// cancelConnect aborts a worker still waiting for the broker, so
	// teardown cannot hang on a connection that never arrives.
	cancelConnect context.CancelFunc

	// mu guards closed against racing producers; writers of the queue
	// hold it shared, teardown holds it exclusively.
	mu     sync.RWMutex
	closed bool

	enqueued atomic.Uint64
	skipped  atomic.Uint64
}

// New constructs a sink from configuration, building the MQTT client and
// spawning the worker goroutine. It returns immediately: there is no
// guarantee the broker connection exists yet, and records logged before
// it does are buffered by the command queue and flushed once connected.
//
// A non-nil error means the configuration cannot produce a working
// broker client; broker unreachability is not an error here (the worker
// retries forever).
func New(cfg *config.Config, log *logging.Logger) (*Sink, error) {
	if log == nil {
		log = logging.Discard()
	}

	topics := mqtt.Topics{Prefix: cfg.Sink.TopicPrefix}
	client, err := mqtt.NewClient(cfg.MQTT, topics.ApplicationStatus(cfg.Application.Name))
	if err != nil {
		return nil, fmt.Errorf("building broker client: %w", err)
	}
	client.SetOnConnect(func() {
		log.Debug("broker connection established")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("broker connection lost", "error", err)
	})

	return NewWithPublisher(cfg, client, format.NewText(cfg.Format), log)
}

// NewWithPublisher constructs a sink over a caller-supplied broker client
// and formatter. This is the seam tests and embedders use; New wires the
// real MQTT client through it.
func NewWithPublisher(cfg *config.Config, pub Publisher, formatter Formatter, log *logging.Logger) (*Sink, error) {
	if pub == nil {
		return nil, errors.New("sink: publisher is required")
	}
	if formatter == nil {
		formatter = format.NewText(cfg.Format)
	}
	if log == nil {
		log = logging.Discard()
	}

	var queue commandQueue
	switch cfg.Sink.Queue.Policy {
	case config.QueuePolicyDropOldest:
		queue = newBoundedQueue(cfg.Sink.Queue.Capacity)
	default:
		queue = newUnboundedQueue()
	}

	topic := mqtt.Topics{Prefix: cfg.Sink.TopicPrefix}.ApplicationLog(cfg.Application.Name)

	ctx, cancel := context.WithCancel(context.Background())
	w := newWorker(pub, topic, queue.Out(), cfg.Sink.OnPublishError, log.With("component", "sink-worker"))

	s := &Sink{
		shared: &shared{
			level:         logging.ParseLevel(cfg.Sink.Level),
			formatter:     formatter,
			fmtCfg:        cfg.Format,
			topic:         topic,
			queue:         queue,
			worker:        w,
			log:           log,
			cancelConnect: cancel,
		},
	}

	go w.run(ctx)

	return s, nil
}

// Enabled reports whether a record at the given level would be relayed.
// Implements slog.Handler.
func (s *Sink) Enabled(_ context.Context, level slog.Level) bool {
	return level >= s.shared.level
}

// Handle formats the record and enqueues it for publishing.
// Implements slog.Handler.
//
// The record is dropped without error when the level gate rejects it or
// the formatter produces no bytes. Trailing whitespace is trimmed.
// Formatted output that is not valid UTF-8 is skipped with
// ErrInvalidPayload rather than published or treated as fatal.
// A record handed to a closed sink returns ErrSinkClosed.
func (s *Sink) Handle(ctx context.Context, rec slog.Record) error {
	if !s.Enabled(ctx, rec.Level) {
		return nil
	}

	var buf bytes.Buffer
	if err := s.shared.formatter.Format(&buf, rec, s.attrs, s.groups); err != nil {
		return fmt.Errorf("formatting record: %w", err)
	}

	payload := bytes.TrimRight(buf.Bytes(), " \t\r\n")
	if len(payload) == 0 {
		return nil
	}
	if !utf8.Valid(payload) {
		s.shared.skipped.Add(1)
		s.shared.log.Warn("skipping record with invalid encoding", "topic", s.shared.topic)
		return ErrInvalidPayload
	}

	return s.shared.enqueue(command{kind: cmdPublish, payload: payload})
}

// WithAttrs returns a clone sharing this sink's queue and worker, with
// the attributes bound to every subsequent record. Implements slog.Handler.
func (s *Sink) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return s
	}
	clone := *s
	clone.attrs = append(slices.Clip(s.attrs), qualifyAttrs(s.groups, attrs)...)
	return &clone
}

// WithGroup returns a clone that qualifies subsequent attribute keys with
// the group name. Implements slog.Handler.
func (s *Sink) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	clone := *s
	clone.groups = append(slices.Clip(s.groups), name)
	return &clone
}

// qualifyAttrs prefixes attribute keys with the currently open group
// path, so bound attributes keep the group context they were added under.
func qualifyAttrs(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	prefix := strings.Join(groups, ".") + "."
	qualified := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		qualified[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return qualified
}

// Flush is a no-op: the sink offers no synchronous drain primitive.
// Delivery of queued records is only guaranteed by Close.
func (s *Sink) Flush() {}

// Level returns the sink's configured minimum level.
func (s *Sink) Level() slog.Level {
	return s.shared.level
}

// Config returns the formatter configuration the sink was built with,
// so a composing host can inspect per-sink filtering.
func (s *Sink) Config() config.FormatConfig {
	return s.shared.fmtCfg
}

// Topic returns the topic records are published under, fixed at
// construction.
func (s *Sink) Topic() string {
	return s.shared.topic
}

// Handler converts the sink into the host framework's generic handler
// type. Pure interface upcast, no behavior change.
func (s *Sink) Handler() slog.Handler {
	return s
}

// Err returns the worker's terminal error, or nil while the relay is
// healthy. A non-nil value means records are being queued (or dropped)
// but not published.
func (s *Sink) Err() error {
	return s.shared.worker.Err()
}

// Stats reports the sink's lifetime counters.
func (s *Sink) Stats() Stats {
	sh := s.shared
	return Stats{
		Enqueued:  sh.enqueued.Load(),
		Published: sh.worker.published.Load(),
		Dropped:   sh.worker.dropped.Load() + sh.queue.Dropped(),
		Skipped:   sh.skipped.Load(),
	}
}

// Stats are lifetime counters for one sink instance.
type Stats struct {
	// Enqueued counts records accepted onto the command queue.
	Enqueued uint64

	// Published counts records acknowledged by the broker client.
	Published uint64

	// Dropped counts records lost to publish failures, evicted by the
	// drop_oldest queue, or still queued when the worker stopped. After
	// Close, Enqueued == Published + Dropped.
	Dropped uint64

	// Skipped counts records rejected at the façade for invalid encoding.
	Skipped uint64
}

// Close tears the sink down: it enqueues the shutdown command, stops
// accepting records, aborts a still-connecting worker, and blocks until
// the worker goroutine finishes. Every record enqueued before Close was
// called has been handled (published, or dropped per policy) by the time
// Close returns; records enqueued after are rejected with ErrSinkClosed.
//
// The teardown is consumed exactly once: a second Close returns
// ErrAlreadyClosed without blocking. A worker that terminated abnormally
// surfaces its error here, wrapped in ErrWorkerFailed.
func (s *Sink) Close() error {
	sh := s.shared

	sh.mu.Lock()
	if sh.closed {
		sh.mu.Unlock()
		return ErrAlreadyClosed
	}
	sh.closed = true
	sh.queue.Send(command{kind: cmdShutdown})
	sh.queue.CloseInput()
	sh.mu.Unlock()

	sh.cancelConnect()
	<-sh.worker.done

	// Release anything still buffered behind the point where the worker
	// stopped reading. Those records were enqueued but never published;
	// count them so the lifetime counters reconcile.
	for cmd := range sh.queue.Out() {
		if cmd.kind == cmdPublish {
			sh.worker.dropped.Add(1)
		}
	}

	return sh.worker.Err()
}

// enqueue adds a command under the shared read lock, so a send can never
// race teardown's closing of the queue input.
func (sh *shared) enqueue(cmd command) error {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if sh.closed {
		return ErrSinkClosed
	}
	sh.queue.Send(cmd)
	sh.enqueued.Add(1)
	return nil
}
