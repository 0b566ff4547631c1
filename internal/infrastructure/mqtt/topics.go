package mqtt

import "fmt"

// DefaultTopicPrefix is the root of the irkeyd topic hierarchy.
const DefaultTopicPrefix = "irkeyd"

// Topics provides builders for irkeyd MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
// The topic hierarchy:
//
//	irkeyd/signal/{decoder}     decoded signals from hardware decoders
//	irkeyd/event/translation    translation results published by the daemon
//	irkeyd/system/status        daemon online/offline status (retained, LWT)
//	irkeyd/system/receiver      receiver health reports
//
// A zero Topics value uses DefaultTopicPrefix; set Prefix to override:
//
//	topics := mqtt.Topics{Prefix: cfg.Receiver.TopicPrefix}
//	sub := topics.AllSignals() // "irkeyd/signal/+"
type Topics struct {
	Prefix string
}

func (t Topics) root() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// Signal returns the topic a specific hardware decoder publishes decoded
// signals on.
//
// Example: irkeyd/signal/gpio-ir0
func (t Topics) Signal(decoderID string) string {
	return fmt.Sprintf("%s/signal/%s", t.root(), decoderID)
}

// AllSignals returns a pattern matching signals from every decoder.
//
// Pattern: irkeyd/signal/+
func (t Topics) AllSignals() string {
	return fmt.Sprintf("%s/signal/+", t.root())
}

// TranslationEvent returns the topic translation results are published on.
//
// Example: irkeyd/event/translation
func (t Topics) TranslationEvent() string {
	return fmt.Sprintf("%s/event/translation", t.root())
}

// SystemStatus returns the daemon status topic (retained; also the LWT).
//
// Example: irkeyd/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.root())
}

// ReceiverHealth returns the receiver health report topic.
//
// Example: irkeyd/system/receiver
func (t Topics) ReceiverHealth() string {
	return fmt.Sprintf("%s/system/receiver", t.root())
}
