package mqtt

import "fmt"

// DefaultTopicPrefix is the base for all sink topics unless overridden
// via sink.topic_prefix in configuration.
const DefaultTopicPrefix = "logging"

// Topics builds the sink's MQTT topic names. Using these helpers keeps
// topic naming consistent between the publish path and the status path.
//
//	topics := mqtt.Topics{Prefix: "logging"}
//	topics.ApplicationLog("robot-arm")   // "logging/robot-arm"
type Topics struct {
	Prefix string
}

// ApplicationLog returns the topic log records are published under.
// The topic is fixed for the lifetime of a sink.
//
// Example: logging/robot-arm
func (t Topics) ApplicationLog(application string) string {
	return fmt.Sprintf("%s/%s", t.prefix(), application)
}

// ApplicationStatus returns the topic for online/offline status and the
// Last Will message.
//
// Example: logging/robot-arm/status
func (t Topics) ApplicationStatus(application string) string {
	return fmt.Sprintf("%s/%s/status", t.prefix(), application)
}

// AllApplications returns a subscription pattern matching every
// application's log topic (but not status topics).
//
// Pattern: logging/+
func (t Topics) AllApplications() string {
	return fmt.Sprintf("%s/+", t.prefix())
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}
