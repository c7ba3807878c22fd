package mqtt

import "errors"

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidConfig is returned by NewClient for configuration that can
	// never produce a working client. This is terminal: the sink worker
	// gives up immediately instead of retrying.
	ErrInvalidConfig = errors.New("mqtt: invalid client configuration")

	// ErrConnectionFailed is returned when a connection attempt fails
	// terminally (the retry loop itself reported an error).
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrNotConnected is returned when attempting to publish while
	// disconnected.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
