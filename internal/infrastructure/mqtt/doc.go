// Package mqtt provides MQTT client connectivity for the Gemns integration core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the message bus connecting the integration core to Home Assistant
// and to anything else that wants device state. The broker decouples the
// fleet manager from its consumers.
//
//	Gemns Core ↔ MQTT Broker ↔ Home Assistant / consumers
//
// # Security Considerations
//
//   - Use an mqtts:// broker URI for TLS in production deployments
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all device commands
//	err = client.Subscribe(topic.DeviceCommandWildcard(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a device state update
//	client.Publish(topic.DeviceUpdate("gemns-1a2b3c"), payload, 1, true)
package mqtt
