package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Queue policies for the sink command queue.
const (
	QueuePolicyUnbounded  = "unbounded"
	QueuePolicyDropOldest = "drop_oldest"
)

// Publish-failure policies for the sink worker.
const (
	PublishErrorDrop  = "drop"
	PublishErrorAbort = "abort"
)

// Config is the root configuration structure for the MQTT log sink.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Application ApplicationConfig `yaml:"application"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Sink        SinkConfig        `yaml:"sink"`
	Format      FormatConfig      `yaml:"format"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ApplicationConfig identifies the application the sink publishes for.
// The name becomes the final segment of the publish topic.
type ApplicationConfig struct {
	Name string `yaml:"name"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
// An empty ClientID is replaced with a generated one at connect time.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
// Delays are in seconds. The connect retry never gives up; these only
// shape the backoff between attempts.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// SinkConfig contains settings for the log sink itself.
type SinkConfig struct {
	// Level is the minimum record level the sink accepts
	// (trace, debug, info, warn, error).
	Level string `yaml:"level"`

	// TopicPrefix is joined with the application name to form the
	// publish topic. Default: "logging".
	TopicPrefix string `yaml:"topic_prefix"`

	// Queue selects the command queue behaviour between the logging
	// call site and the publish worker.
	Queue QueueConfig `yaml:"queue"`

	// OnPublishError selects the worker's publish-failure policy:
	// "drop" logs and continues, "abort" stops the worker and surfaces
	// the error at Close.
	OnPublishError string `yaml:"on_publish_error"`
}

// QueueConfig selects the command queue implementation.
type QueueConfig struct {
	// Policy is "unbounded" (non-blocking send, memory-bounded only) or
	// "drop_oldest" (fixed capacity, oldest command dropped when full).
	Policy string `yaml:"policy"`

	// Capacity applies to the drop_oldest policy only.
	Capacity int `yaml:"capacity"`
}

// FormatConfig contains settings for the default record formatter.
type FormatConfig struct {
	// TimeFormat is a Go time layout. Empty disables the timestamp.
	TimeFormat string `yaml:"time_format"`

	// AllowTargets, when non-empty, restricts formatting to records whose
	// target (logger name) has one of these prefixes.
	AllowTargets []string `yaml:"allow_targets"`

	// DenyTargets suppresses records whose target has one of these
	// prefixes. Deny wins over allow.
	DenyTargets []string `yaml:"deny_targets"`
}

// LoggingConfig contains diagnostics logging settings for the sink's own
// internals (connection events, dropped records, worker failures).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MQTTSINK_SECTION_KEY
// For example: MQTTSINK_MQTT_HOST, MQTTSINK_APPLICATION_NAME
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name: "application",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Sink: SinkConfig{
			Level:       "info",
			TopicPrefix: "logging",
			Queue: QueueConfig{
				Policy:   QueuePolicyUnbounded,
				Capacity: 1024,
			},
			OnPublishError: PublishErrorDrop,
		},
		Format: FormatConfig{
			TimeFormat: "2006-01-02 15:04:05",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MQTTSINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MQTTSINK_APPLICATION_NAME"); v != "" {
		cfg.Application.Name = v
	}

	if v := os.Getenv("MQTTSINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MQTTSINK_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("MQTTSINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MQTTSINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("MQTTSINK_SINK_LEVEL"); v != "" {
		cfg.Sink.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Application.Name == "" {
		errs = append(errs, "application.name is required")
	}
	if strings.ContainsAny(c.Application.Name, "+#/") {
		errs = append(errs, "application.name must not contain MQTT topic separators or wildcards")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Reconnect.InitialDelay < 1 {
		errs = append(errs, "mqtt.reconnect.initial_delay must be at least 1 second")
	}
	if c.MQTT.Reconnect.MaxDelay < c.MQTT.Reconnect.InitialDelay {
		errs = append(errs, "mqtt.reconnect.max_delay must not be less than initial_delay")
	}

	if c.Sink.TopicPrefix == "" {
		errs = append(errs, "sink.topic_prefix is required")
	}

	switch c.Sink.Queue.Policy {
	case QueuePolicyUnbounded:
	case QueuePolicyDropOldest:
		if c.Sink.Queue.Capacity < 1 {
			errs = append(errs, "sink.queue.capacity must be at least 1 for drop_oldest")
		}
	default:
		errs = append(errs, fmt.Sprintf("sink.queue.policy must be %q or %q", QueuePolicyUnbounded, QueuePolicyDropOldest))
	}

	switch c.Sink.OnPublishError {
	case PublishErrorDrop, PublishErrorAbort:
	default:
		errs = append(errs, fmt.Sprintf("sink.on_publish_error must be %q or %q", PublishErrorDrop, PublishErrorAbort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
