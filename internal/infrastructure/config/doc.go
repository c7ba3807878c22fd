// Package config loads and validates the sink's YAML configuration.
//
// Configuration follows a three-layer model: hardcoded defaults, YAML file
// values, then MQTTSINK_* environment variable overrides. The resulting
// Config is immutable once handed to the sink.
//
// # Example
//
//	application:
//	  name: "robot-arm"
//	mqtt:
//	  broker:
//	    host: "mqtt.local"
//	    port: 1883
//	  qos: 1
//	sink:
//	  level: "info"
//	  queue:
//	    policy: "unbounded"
//	  on_publish_error: "drop"
//	logging:
//	  level: "info"
//	  format: "json"
package config
