package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/irkeyd/irkeyd/internal/audit"
	"github.com/irkeyd/irkeyd/internal/infrastructure/mqtt"
	"github.com/irkeyd/irkeyd/internal/remotes"
)

// mockMQTT records published messages and tracked subscriptions.
type mockMQTT struct {
	mu         sync.Mutex
	published  []mockMessage
	subscribed map[string]mqtt.MessageHandler
	subErr     error
}

type mockMessage struct {
	topic    string
	payload  []byte
	retained bool
}

func newMockMQTT() *mockMQTT {
	return &mockMQTT{subscribed: make(map[string]mqtt.MessageHandler)}
}

func (m *mockMQTT) Publish(topic string, payload []byte, _ byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, mockMessage{topic: topic, payload: payload, retained: retained})
	return nil
}

func (m *mockMQTT) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	if m.subErr != nil {
		return m.subErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed[topic] = handler
	return nil
}

func (m *mockMQTT) IsConnected() bool { return true }

func (m *mockMQTT) messagesOn(topic string) []mockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mockMessage
	for _, msg := range m.published {
		if msg.topic == topic {
			out = append(out, msg)
		}
	}
	return out
}

// mockTranslator returns canned emissions and records calls.
type mockTranslator struct {
	mu        sync.Mutex
	emissions []remotes.Emission
	calls     []Signal
}

func (m *mockTranslator) Translate(protocol, device, command int32) []remotes.Emission {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Signal{Protocol: protocol, Device: device, Command: command})
	return m.emissions
}

// mockRecorder captures recorded signal events.
type mockRecorder struct {
	mu     sync.Mutex
	events []audit.SignalEvent
	err    error
}

func (m *mockRecorder) Record(_ context.Context, event *audit.SignalEvent) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

func newTestReceiver(t *testing.T, translator *mockTranslator, recorder *mockRecorder) (*Receiver, *mockMQTT) {
	t.Helper()

	client := newMockMQTT()
	opts := Options{
		MQTTClient:    client,
		Translator:    translator,
		PublishEvents: true,
		QoS:           1,
	}
	if recorder != nil {
		opts.Recorder = recorder
	}
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, client
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Options{Translator: &mockTranslator{}}); err == nil {
		t.Error("New() without MQTT client succeeded")
	}
	if _, err := New(Options{MQTTClient: newMockMQTT()}); err == nil {
		t.Error("New() without translator succeeded")
	}
}

func TestStartSubscribesToSignals(t *testing.T) {
	r, client := newTestReceiver(t, &mockTranslator{}, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop()

	if _, ok := client.subscribed["irkeyd/signal/+"]; !ok {
		t.Errorf("not subscribed to signal topic, got %v", client.subscribed)
	}

	// Initial health report is retained on the receiver topic.
	if msgs := client.messagesOn("irkeyd/system/receiver"); len(msgs) != 1 || !msgs[0].retained {
		t.Errorf("expected one retained health report, got %+v", msgs)
	}
}

func TestStartSubscribeFailure(t *testing.T) {
	client := newMockMQTT()
	client.subErr = errors.New("broker down")
	r, err := New(Options{MQTTClient: client, Translator: &mockTranslator{}})
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Start(context.Background()); err == nil {
		t.Error("Start() succeeded despite subscribe failure")
	}
}

func TestHandleSignalTranslatesAndPublishes(t *testing.T) {
	translator := &mockTranslator{emissions: []remotes.Emission{
		{Remote: "tv", Keymap: "power", Keycode: 116},
	}}
	recorder := &mockRecorder{}
	r, client := newTestReceiver(t, translator, recorder)

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	handler := client.subscribed["irkeyd/signal/+"]
	if err := handler("irkeyd/signal/gpio-ir0", []byte(`{"protocol":1,"device":2,"command":3}`)); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if len(translator.calls) != 1 || translator.calls[0] != (Signal{1, 2, 3}) {
		t.Errorf("translator calls = %+v", translator.calls)
	}

	msgs := client.messagesOn("irkeyd/event/translation")
	if len(msgs) != 1 {
		t.Fatalf("expected 1 translation event, got %d", len(msgs))
	}
	var event TranslationEvent
	if err := json.Unmarshal(msgs[0].payload, &event); err != nil {
		t.Fatalf("unmarshalling event: %v", err)
	}
	if !event.Matched || len(event.Emissions) != 1 || event.Emissions[0].Keycode != 116 {
		t.Errorf("event = %+v", event)
	}
	if event.Source != "gpio-ir0" {
		t.Errorf("source = %q, want gpio-ir0", event.Source)
	}

	if len(recorder.events) != 1 || !recorder.events[0].Matched || recorder.events[0].Emissions != 1 {
		t.Errorf("recorded events = %+v", recorder.events)
	}

	received, translated, malformed := r.Stats()
	if received != 1 || translated != 1 || malformed != 0 {
		t.Errorf("stats = %d/%d/%d, want 1/1/0", received, translated, malformed)
	}
}

func TestHandleSignalUnmatched(t *testing.T) {
	recorder := &mockRecorder{}
	r, client := newTestReceiver(t, &mockTranslator{}, recorder)

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	handler := client.subscribed["irkeyd/signal/+"]
	if err := handler("irkeyd/signal/gpio-ir0", []byte(`{"protocol":9,"device":9,"command":9}`)); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	// Unmatched signals still produce an event and a log entry.
	if msgs := client.messagesOn("irkeyd/event/translation"); len(msgs) != 1 {
		t.Errorf("expected translation event for unmatched signal, got %d", len(msgs))
	}
	if len(recorder.events) != 1 || recorder.events[0].Matched {
		t.Errorf("recorded events = %+v", recorder.events)
	}

	_, translated, _ := r.Stats()
	if translated != 0 {
		t.Errorf("translated = %d, want 0", translated)
	}
}

func TestHandleSignalMalformed(t *testing.T) {
	translator := &mockTranslator{}
	r, client := newTestReceiver(t, translator, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	handler := client.subscribed["irkeyd/signal/+"]

	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{not json`},
		{"missing command", `{"protocol":1,"device":2}`},
		{"negative value", `{"protocol":-1,"device":2,"command":3}`},
		{"wrong types", `{"protocol":"one","device":2,"command":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handler("irkeyd/signal/gpio-ir0", []byte(tt.payload))
			if !errors.Is(err, ErrMalformedSignal) {
				t.Errorf("expected ErrMalformedSignal, got %v", err)
			}
		})
	}

	if len(translator.calls) != 0 {
		t.Errorf("malformed signals reached the translator: %+v", translator.calls)
	}

	received, _, malformed := r.Stats()
	if received != 4 || malformed != 4 {
		t.Errorf("stats = received %d malformed %d, want 4/4", received, malformed)
	}

	// A valid signal after malformed ones still processes.
	if err := handler("irkeyd/signal/gpio-ir0", []byte(`{"protocol":1,"device":2,"command":3}`)); err != nil {
		t.Errorf("valid signal after malformed failed: %v", err)
	}
	if len(translator.calls) != 1 {
		t.Errorf("valid signal did not reach translator")
	}
}

func TestProcessInvokesCallback(t *testing.T) {
	r, _ := newTestReceiver(t, &mockTranslator{emissions: []remotes.Emission{
		{Remote: "tv", Keymap: "power", Keycode: 30},
	}}, nil)

	var got TranslationEvent
	r.SetOnTranslation(func(event TranslationEvent) { got = event })

	r.Process(Signal{Protocol: 1, Device: 2, Command: 3}, "api")

	if !got.Matched || got.Source != "api" {
		t.Errorf("callback event = %+v", got)
	}
}

func TestHealthLoopPublishesPeriodically(t *testing.T) {
	client := newMockMQTT()
	r, err := New(Options{
		MQTTClient:     client,
		Translator:     &mockTranslator{},
		HealthInterval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	time.Sleep(70 * time.Millisecond)
	r.Stop()

	msgs := client.messagesOn("irkeyd/system/receiver")
	if len(msgs) < 2 {
		t.Fatalf("expected periodic health reports, got %d", len(msgs))
	}

	var report HealthReport
	if err := json.Unmarshal(msgs[len(msgs)-1].payload, &report); err != nil {
		t.Fatalf("unmarshalling health report: %v", err)
	}
	if report.Status != "ok" {
		t.Errorf("status = %q, want ok", report.Status)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	r, _ := newTestReceiver(t, &mockTranslator{}, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	r.Stop()
	r.Stop()
}

func TestDecoderFromTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"irkeyd/signal/gpio-ir0", "gpio-ir0"},
		{"irkeyd/signal/", ""},
		{"nodash", ""},
	}
	for _, tt := range tests {
		if got := decoderFromTopic(tt.topic); got != tt.want {
			t.Errorf("decoderFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}
