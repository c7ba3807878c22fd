package sink

import (
	"log/slog"

	"github.com/dmweis/mqttsink/internal/infrastructure/config"
	"github.com/dmweis/mqttsink/internal/infrastructure/logging"
)

// Install registers the handler as the process-wide default logger.
// Kept as a thin wrapper so sinks remain constructible and testable
// without touching global state.
func Install(handler slog.Handler) {
	slog.SetDefault(slog.New(handler))
}

// Init constructs a sink from configuration and installs it as the
// process-wide default. The returned sink must still be closed by the
// caller to flush queued records on exit.
//
//	s, err := sink.Init(cfg, log)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	slog.Info("now relayed over MQTT")
func Init(cfg *config.Config, log *logging.Logger) (*Sink, error) {
	s, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	Install(s)
	return s, nil
}
