package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dmweis/mqttsink/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang for the log sink's publish-only needs.
//
// Unlike a general-purpose client it never subscribes; it exists to carry
// formatted log records from the sink worker to the broker. Construction
// (NewClient) is separated from connection (Connect) because the sink
// establishes the connection asynchronously on its worker goroutine, with
// a retry policy that never gives up.
//
// Thread Safety:
//   - All methods are safe for concurrent use, though the sink only ever
//     calls Publish from its single worker goroutine.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	statusTopic string

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	// Callbacks for connection events (optional, set via SetOnConnect/SetOnDisconnect).
	onConnect    func()
	onDisconnect func(err error)
	callbackMu   sync.RWMutex
}

// NewClient validates the configuration and builds an unconnected client.
//
// A non-nil error here is terminal: it means the configuration cannot
// produce a working client (malformed host, bad port), not that the broker
// is unreachable. Reachability is retried forever by Connect.
//
// Parameters:
//   - cfg: MQTT configuration
//   - statusTopic: topic for online/offline status and the LWT message
//
// Returns:
//   - *Client: Unconnected client ready for Connect
//   - error: Wrapping ErrInvalidConfig if the configuration is unusable
func NewClient(cfg config.MQTTConfig, statusTopic string) (*Client, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:         cfg,
		statusTopic: statusTopic,
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, statusTopic, clientID(opts))

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.options = opts
	c.client = pahomqtt.NewClient(opts)

	return c, nil
}

// validate rejects configurations that can never connect.
func validate(cfg config.MQTTConfig) error {
	if cfg.Broker.Host == "" {
		return fmt.Errorf("%w: broker host is empty", ErrInvalidConfig)
	}
	if cfg.Broker.Port < 1 || cfg.Broker.Port > 65535 {
		return fmt.Errorf("%w: broker port %d out of range", ErrInvalidConfig, cfg.Broker.Port)
	}
	if cfg.QoS < 0 || cfg.QoS > maxQoS {
		return fmt.Errorf("%w: QoS %d out of range", ErrInvalidConfig, cfg.QoS)
	}
	return nil
}

// Connect establishes the broker connection, retrying indefinitely.
//
// The paho connect-retry loop keeps attempting with the configured backoff
// until it succeeds; the only ways out are a successful connection or ctx
// cancellation. Once connected, the client publishes an online status
// message and auto-reconnects on subsequent connection loss.
//
// Parameters:
//   - ctx: Cancels the connection attempt (used by the sink's teardown)
//
// Returns:
//   - error: ctx.Err() if cancelled, nil once connected
func (c *Client) Connect(ctx context.Context) error {
	token := c.client.Connect()

	select {
	case <-token.Done():
	case <-ctx.Done():
		// Abandon the attempt. Disconnect stops the retry loop.
		c.client.Disconnect(0)
		return fmt.Errorf("mqtt connect: %w", ctx.Err())
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnectHandler runs asynchronously and may not have fired yet;
	// record the state here so IsConnected is immediately accurate.
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return nil
}

// handleConnect is called on initial connect and every reconnect.
func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.publishStatus(statusOnline)

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// handleDisconnect is called when the connection is lost.
func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// Close gracefully disconnects from the MQTT broker.
//
// It publishes a graceful offline status (distinguishable from the LWT
// crash status), waits briefly for pending operations, then disconnects.
//
// Returns:
//   - error: Always nil today; kept for interface symmetry
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		token := c.client.Publish(c.statusTopic, byte(c.cfg.QoS), true, statusPayload(statusOffline, clientID(c.options)))
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	return nil
}

// publishStatus publishes a retained status message to the status topic.
func (c *Client) publishStatus(status string) {
	c.client.Publish(c.statusTopic, byte(c.cfg.QoS), true, statusPayload(status, clientID(c.options)))
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// SetOnConnect sets a callback invoked on initial connect and every reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnDisconnect sets a callback invoked when the connection is lost.
// The error parameter describes why the connection was lost.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}
