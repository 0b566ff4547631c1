package receiver

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Signal is a decoded signal tuple received from a hardware decoder.
//
// All three fields are required in the wire format; a missing field is a
// malformed message, not a zero value.
type Signal struct {
	Protocol int32 `json:"protocol"`
	Device   int32 `json:"device"`
	Command  int32 `json:"command"`
}

// signalMessage is the wire format for decoded signals.
// Pointer fields distinguish "absent" from "zero".
type signalMessage struct {
	Protocol *int32 `json:"protocol"`
	Device   *int32 `json:"device"`
	Command  *int32 `json:"command"`
}

// parseSignal decodes and validates a signal payload.
func parseSignal(payload []byte) (Signal, error) {
	var msg signalMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Signal{}, fmt.Errorf("%w: %w", ErrMalformedSignal, err)
	}

	if msg.Protocol == nil || msg.Device == nil || msg.Command == nil {
		return Signal{}, fmt.Errorf("%w: protocol, device and command are required", ErrMalformedSignal)
	}
	if *msg.Protocol < 0 || *msg.Device < 0 || *msg.Command < 0 {
		return Signal{}, fmt.Errorf("%w: negative tuple values", ErrMalformedSignal)
	}

	return Signal{
		Protocol: *msg.Protocol,
		Device:   *msg.Device,
		Command:  *msg.Command,
	}, nil
}

// decoderFromTopic extracts the decoder ID from a signal topic.
//
// Topic format: {prefix}/signal/{decoder}
func decoderFromTopic(topic string) string {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 || idx == len(topic)-1 {
		return ""
	}
	return topic[idx+1:]
}

// EmittedKey is one key event within a translation event.
type EmittedKey struct {
	Remote  string `json:"remote"`
	Keymap  string `json:"keymap"`
	Keycode int32  `json:"keycode"`
}

// TranslationEvent is published after each decoded signal, whether or not
// any keymap entries matched.
type TranslationEvent struct {
	Signal    Signal       `json:"signal"`
	Source    string       `json:"source,omitempty"`
	Matched   bool         `json:"matched"`
	Emissions []EmittedKey `json:"emissions"`
	Timestamp time.Time    `json:"timestamp"`
}

// HealthReport is the periodic receiver health payload.
type HealthReport struct {
	Status        string    `json:"status"`
	Received      uint64    `json:"received"`
	Translated    uint64    `json:"translated"`
	Malformed     uint64    `json:"malformed"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}
