// mqttsink - MQTT log relay
//
// This binary demonstrates the sink end to end: it installs the MQTT
// sink as the process-wide slog default (composed with a local text
// handler) and relays every line read from stdin as an info-level log
// record. Lines appear on the broker under logging/<application>.
//
//	echo "hello" | mqttsink
//	mosquitto_sub -t 'logging/+'
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmweis/mqttsink/internal/infrastructure/config"
	"github.com/dmweis/mqttsink/internal/infrastructure/logging"
	"github.com/dmweis/mqttsink/internal/sink"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default diagnostics until config is loaded
	log := logging.Default()

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("starting mqttsink",
		"version", version,
		"commit", commit,
		"application", cfg.Application.Name,
	)

	s, err := sink.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building sink: %w", err)
	}
	defer func() {
		log.Info("closing sink", "stats", s.Stats())
		if closeErr := s.Close(); closeErr != nil {
			log.Error("error closing sink", "error", closeErr)
		}
	}()

	// Compose the MQTT sink with a local text handler, so relayed lines
	// stay visible on the terminal, and make the pair the default logger.
	local := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.Sink.Level),
	})
	sink.Install(sink.NewMultiHandler(s, local))

	slog.Info("log relay online", "topic", s.Topic())

	return relay(ctx, os.Stdin)
}

// relay logs each line read from r until EOF or cancellation.
func relay(ctx context.Context, r *os.File) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
				default:
				}
				return nil
			}
			if line == "" {
				continue
			}
			slog.Info(line, "target", "stdin")
		case <-ctx.Done():
			return nil
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses MQTTSINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MQTTSINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
