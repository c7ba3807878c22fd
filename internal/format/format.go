package format

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmweis/mqttsink/internal/infrastructure/config"
)

// TargetKey is the attribute key carrying a record's target (the logger or
// component name). Targets drive allow/deny filtering and are rendered in
// parentheses rather than as a key=value pair.
const TargetKey = "target"

// Text renders log records as single-line human-readable text.
//
// Output shape:
//
//	2026-08-28 12:00:05 [INFO] (component) message key=value
//
// A record suppressed by the target filters produces no output at all,
// which the sink treats as "nothing to publish".
type Text struct {
	cfg config.FormatConfig
}

// NewText creates a text formatter with the given configuration.
func NewText(cfg config.FormatConfig) *Text {
	return &Text{cfg: cfg}
}

// Config returns the formatter's configuration.
func (f *Text) Config() config.FormatConfig {
	return f.cfg
}

// Format renders one record into buf.
//
// Parameters:
//   - buf: Destination buffer; left empty for filtered-out records
//   - rec: The record to render
//   - attrs: Attributes bound to the handler via WithAttrs
//   - groups: Open group names from WithGroup, outermost first
//
// Returns:
//   - error: Always nil today; the signature leaves room for formatters
//     that can genuinely fail (templates, encoders)
func (f *Text) Format(buf *bytes.Buffer, rec slog.Record, attrs []slog.Attr, groups []string) error {
	target := findTarget(rec, attrs)
	if !f.allowed(target) {
		return nil
	}

	if f.cfg.TimeFormat != "" && !rec.Time.IsZero() {
		buf.WriteString(rec.Time.Format(f.cfg.TimeFormat))
		buf.WriteByte(' ')
	}

	buf.WriteByte('[')
	buf.WriteString(levelString(rec.Level))
	buf.WriteString("] ")

	if target != "" {
		buf.WriteByte('(')
		buf.WriteString(target)
		buf.WriteString(") ")
	}

	buf.WriteString(rec.Message)

	// Handler-bound attrs arrive already qualified; the open group path
	// applies only to this record's own attrs.
	for _, a := range attrs {
		writeAttr(buf, "", a)
	}
	prefix := strings.Join(groups, ".")
	rec.Attrs(func(a slog.Attr) bool {
		writeAttr(buf, prefix, a)
		return true
	})

	return nil
}

// allowed applies the deny and allow prefix filters. Deny wins.
func (f *Text) allowed(target string) bool {
	for _, deny := range f.cfg.DenyTargets {
		if strings.HasPrefix(target, deny) {
			return false
		}
	}
	if len(f.cfg.AllowTargets) == 0 {
		return true
	}
	for _, allow := range f.cfg.AllowTargets {
		if strings.HasPrefix(target, allow) {
			return true
		}
	}
	return false
}

// findTarget locates the target attribute, preferring per-record attrs
// over handler-bound ones.
func findTarget(rec slog.Record, attrs []slog.Attr) string {
	target := ""
	for _, a := range attrs {
		if a.Key == TargetKey {
			target = a.Value.String()
		}
	}
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == TargetKey {
			target = a.Value.String()
			return false
		}
		return true
	})
	return target
}

// writeAttr appends one attribute as " key=value", flattening groups with
// dotted keys. The target attribute is rendered separately.
func writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	if a.Key == TargetKey {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		childPrefix := a.Key
		if prefix != "" {
			childPrefix = prefix + "." + a.Key
		}
		for _, child := range a.Value.Group() {
			writeAttr(buf, childPrefix, child)
		}
		return
	}
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	fmt.Fprintf(buf, " %s=%v", key, a.Value.Resolve().Any())
}

// levelString maps slog levels (including trace) to display names.
func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}
