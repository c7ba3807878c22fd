package sink

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmweis/mqttsink/internal/infrastructure/config"
)

// SharedSink is what a composing host needs from each sink in a
// heterogeneous collection: its level gate and formatter configuration
// for pre-dispatch filtering, and the conversion into the generic
// handler type.
type SharedSink interface {
	Level() slog.Level
	Config() config.FormatConfig
	Handler() slog.Handler
}

// MultiHandler fans records out to several handlers, applying each
// handler's own level gate. It lets the MQTT sink sit next to a terminal
// or file handler under a single logger.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler creates a dispatcher over the given handlers.
// Records are offered to every handler whose Enabled accepts them.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Enabled reports whether any child handler accepts the level.
// Implements slog.Handler.
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle dispatches the record to every enabled child. All children are
// attempted regardless of individual failures; the errors are joined.
// Implements slog.Handler.
func (m *MultiHandler) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs implements slog.Handler.
func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		children[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: children}
}

// WithGroup implements slog.Handler.
func (m *MultiHandler) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		children[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: children}
}
