// Package mqtt provides MQTT client connectivity for irkeyd.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// irkeyd uses MQTT as the message bus connecting hardware signal decoders
// to the translation daemon. The broker (Mosquitto) decouples the daemon
// from decoder-specific implementations.
//
//	Hardware Decoders → MQTT Broker → irkeyd → Virtual Input Devices
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to decoded signals from all decoders
//	err = client.Subscribe(mqtt.Topics{}.AllSignals(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a translation event
//	topic := mqtt.Topics{}.TranslationEvent()
//	client.Publish(topic, []byte(`{"keycode":116}`), 1, false)
package mqtt
