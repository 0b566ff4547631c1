package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/irkeyd/irkeyd/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "irkeyd-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// =============================================================================
// Option Building Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("expected 1 broker, got %d", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want tcp://127.0.0.1:1883", got)
	}
	if opts.ClientID != "irkeyd-test" {
		t.Errorf("ClientID = %q, want irkeyd-test", opts.ClientID)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect not enabled")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("scheme = %q, want ssl", got)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig not set for TLS broker")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := pahomqtt.NewClientOptions()
	configureLWT(opts, "irkeyd-test")

	if !opts.WillEnabled {
		t.Fatal("will not enabled")
	}
	if got := opts.WillTopic; got != "irkeyd/system/status" {
		t.Errorf("will topic = %q, want irkeyd/system/status", got)
	}
	if !opts.WillRetained {
		t.Error("will not retained")
	}
	payload := string(opts.WillPayload)
	if !strings.Contains(payload, `"status":"offline"`) {
		t.Errorf("will payload missing offline status: %s", payload)
	}
	if !strings.Contains(payload, `"client_id":"irkeyd-test"`) {
		t.Errorf("will payload missing client id: %s", payload)
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("irkeyd-test")
	if !strings.Contains(online, `"status":"online"`) {
		t.Errorf("online payload = %s", online)
	}

	offline := buildOfflinePayload("irkeyd-test")
	if !strings.Contains(offline, `"status":"offline"`) {
		t.Errorf("offline payload = %s", offline)
	}
	if !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload missing reason: %s", offline)
	}
}

// =============================================================================
// Validation Tests (no broker required)
// =============================================================================

func TestPublishValidation(t *testing.T) {
	c := &Client{}

	if err := c.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: got %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("irkeyd/event/translation", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("QoS 3: got %v, want ErrInvalidQoS", err)
	}
	oversized := make([]byte, maxPayloadSize+1)
	if err := c.Publish("irkeyd/event/translation", oversized, 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("oversized payload: got %v, want ErrPublishFailed", err)
	}
	if err := c.Publish("irkeyd/event/translation", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected: got %v, want ErrNotConnected", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: got %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("irkeyd/signal/+", 3, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("QoS 3: got %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe("irkeyd/signal/+", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler: got %v, want ErrSubscribeFailed", err)
	}
	if err := c.Subscribe("irkeyd/signal/+", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected: got %v, want ErrNotConnected", err)
	}

	// Failed subscriptions must not be tracked for restoration.
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribes, want 0", c.SubscriptionCount())
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: got %v, want ErrInvalidTopic", err)
	}
	if err := c.Unsubscribe("irkeyd/signal/+"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected: got %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	c := &Client{}

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) = %v, want context.Canceled", err)
	}
}

func TestHasSubscription(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if c.HasSubscription("irkeyd/signal/+") {
		t.Error("HasSubscription() = true for untracked topic")
	}
	c.subscriptions["irkeyd/signal/+"] = subscription{topic: "irkeyd/signal/+"}
	if !c.HasSubscription("irkeyd/signal/+") {
		t.Error("HasSubscription() = false for tracked topic")
	}
}

// =============================================================================
// Topic Builder Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Signal", topics.Signal("gpio-ir0"), "irkeyd/signal/gpio-ir0"},
		{"AllSignals", topics.AllSignals(), "irkeyd/signal/+"},
		{"TranslationEvent", topics.TranslationEvent(), "irkeyd/event/translation"},
		{"SystemStatus", topics.SystemStatus(), "irkeyd/system/status"},
		{"ReceiverHealth", topics.ReceiverHealth(), "irkeyd/system/receiver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestTopicBuildersCustomPrefix(t *testing.T) {
	topics := Topics{Prefix: "ir-lab"}

	if got := topics.AllSignals(); got != "ir-lab/signal/+" {
		t.Errorf("AllSignals() = %q, want ir-lab/signal/+", got)
	}
	if got := topics.SystemStatus(); got != "ir-lab/system/status" {
		t.Errorf("SystemStatus() = %q, want ir-lab/system/status", got)
	}
}
