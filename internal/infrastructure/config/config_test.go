package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
application:
  name: "test-app"
mqtt:
  broker:
    host: "mqtt.local"
    port: 8883
    tls: true
  qos: 2
sink:
  level: "debug"
  topic_prefix: "logs"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Application.Name != "test-app" {
		t.Errorf("Application.Name = %q, want %q", cfg.Application.Name, "test-app")
	}
	if cfg.MQTT.Broker.Host != "mqtt.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.local")
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.Sink.TopicPrefix != "logs" {
		t.Errorf("Sink.TopicPrefix = %q, want %q", cfg.Sink.TopicPrefix, "logs")
	}

	// Defaults survive partial files
	if cfg.Sink.Queue.Policy != QueuePolicyUnbounded {
		t.Errorf("Sink.Queue.Policy = %q, want %q", cfg.Sink.Queue.Policy, QueuePolicyUnbounded)
	}
	if cfg.Sink.OnPublishError != PublishErrorDrop {
		t.Errorf("Sink.OnPublishError = %q, want %q", cfg.Sink.OnPublishError, PublishErrorDrop)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MQTTSINK_MQTT_HOST", "override.local")
	t.Setenv("MQTTSINK_APPLICATION_NAME", "override-app")
	t.Setenv("MQTTSINK_SINK_LEVEL", "warn")

	content := `
application:
  name: "file-app"
mqtt:
  broker:
    host: "file.local"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "override.local" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
	if cfg.Application.Name != "override-app" {
		t.Errorf("Application.Name = %q, want env override", cfg.Application.Name)
	}
	if cfg.Sink.Level != "warn" {
		t.Errorf("Sink.Level = %q, want env override", cfg.Sink.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "empty application name",
			mutate:  func(c *Config) { c.Application.Name = "" },
			wantErr: "application.name",
		},
		{
			name:    "application name with topic separator",
			mutate:  func(c *Config) { c.Application.Name = "a/b" },
			wantErr: "application.name",
		},
		{
			name:    "application name with wildcard",
			mutate:  func(c *Config) { c.Application.Name = "app#" },
			wantErr: "application.name",
		},
		{
			name:    "empty broker host",
			mutate:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: "mqtt.broker.host",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: "mqtt.broker.port",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "zero initial delay",
			mutate:  func(c *Config) { c.MQTT.Reconnect.InitialDelay = 0 },
			wantErr: "initial_delay",
		},
		{
			name:    "unknown queue policy",
			mutate:  func(c *Config) { c.Sink.Queue.Policy = "bounded" },
			wantErr: "sink.queue.policy",
		},
		{
			name: "drop_oldest without capacity",
			mutate: func(c *Config) {
				c.Sink.Queue.Policy = QueuePolicyDropOldest
				c.Sink.Queue.Capacity = 0
			},
			wantErr: "sink.queue.capacity",
		},
		{
			name:    "unknown publish error policy",
			mutate:  func(c *Config) { c.Sink.OnPublishError = "panic" },
			wantErr: "on_publish_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
