package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/dmweis/mqttsink/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho MQTT options from sink config.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID (generated if not configured)
//   - Authentication credentials (if provided)
//   - Connect-retry that never gives up, with exponential backoff
//   - Auto-reconnect after an established connection drops
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))

	id := cfg.Broker.ClientID
	if id == "" {
		id = fmt.Sprintf("mqttsink-%s", uuid.NewString()[:8])
	}
	opts.SetClientID(id)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)

	// The sink's availability contract: keep trying until the broker
	// appears, then keep the connection alive across drops.
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}

// clientID returns the client ID chosen during option building.
func clientID(opts *pahomqtt.ClientOptions) string {
	return opts.ClientID
}

// configureLWT sets up Last Will and Testament on the status topic.
//
// The broker publishes the LWT if the sink disconnects unexpectedly, so
// log consumers can tell a crashed application apart from one that merely
// went quiet.
func configureLWT(opts *pahomqtt.ClientOptions, statusTopic, clientID string) {
	opts.SetWill(statusTopic, statusPayload(statusCrashed, clientID), 1, true)
}

// Status message values published to the status topic.
const (
	statusOnline  = "online"
	statusOffline = "offline"
	statusCrashed = "offline_unexpected"
)

// statusPayload creates the JSON payload for status messages.
func statusPayload(status, clientID string) string {
	return fmt.Sprintf(
		`{"status":%q,"client_id":%q,"timestamp":%q}`,
		status,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)
}
