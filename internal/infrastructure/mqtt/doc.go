// Package mqtt provides the broker client for the log sink.
//
// This package manages:
//   - Connection to the broker with a retry policy that never gives up
//   - Publishing formatted log records with the configured QoS
//   - Online/offline status with Last Will and Testament (LWT)
//   - Topic naming for log and status topics
//
// # Architecture
//
// The sink keeps the logging call path free of network I/O by handing
// records to a single worker goroutine; that worker is this client's only
// caller. Construction (NewClient) and connection (Connect) are separate so
// the worker can report malformed configuration immediately while retrying
// broker reachability forever.
//
//	application → sink worker → mqtt.Client → broker
//
// # Usage
//
//	client, err := mqtt.NewClient(cfg.MQTT, topics.ApplicationStatus(app))
//	if err != nil {
//	    return err // configuration is unusable
//	}
//	if err := client.Connect(ctx); err != nil {
//	    return err // only on cancellation
//	}
//	defer client.Close()
//
//	client.Publish(topics.ApplicationLog(app), payload)
package mqtt
