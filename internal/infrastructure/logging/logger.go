package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dmweis/mqttsink/internal/infrastructure/config"
)

// LevelTrace extends the standard slog levels below Debug. The sink accepts
// trace records; diagnostics output maps them like any other level.
const LevelTrace = slog.Level(-8)

// Logger wraps slog.Logger for the sink's own diagnostics output.
//
// This is the channel through which the sink reports its internal state:
// connection events, dropped records, worker failures. It is deliberately
// separate from the log records the sink relays, so a broken broker
// connection can still be observed locally.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the specified configuration.
//
// It configures:
//   - Output format (JSON for production, text for development)
//   - Log level filtering
//   - Default fields (service name, version)
//   - Output destination
//
// Parameters:
//   - cfg: Diagnostics logging configuration
//   - version: Application version for default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "mqttsink"),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// ParseLevel converts a string log level to slog.Level.
//
// Supported levels: trace, debug, info, warn, error.
// Defaults to info if unrecognised.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes.
//
// Example:
//
//	workerLog := logger.With("component", "worker")
//	workerLog.Info("connected") // Includes component=worker
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Discard returns a logger that drops all output. Used where no diagnostics
// destination has been configured, keeping call sites nil-free.
func Discard() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Default creates a default logger for use before configuration is loaded.
//
// This logger outputs to stdout in JSON format at info level.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
