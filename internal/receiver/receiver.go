package receiver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/irkeyd/irkeyd/internal/audit"
	"github.com/irkeyd/irkeyd/internal/infrastructure/mqtt"
	"github.com/irkeyd/irkeyd/internal/remotes"
)

// defaultHealthInterval is used when Options.HealthInterval is zero.
const defaultHealthInterval = 30 * time.Second

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Translator runs a decoded signal through the keymap registry.
// Satisfied by *remotes.Registry.
type Translator interface {
	Translate(protocol, device, command int32) []remotes.Emission
}

// SignalRecorder persists signal events. Satisfied by audit.Repository.
// Optional - if nil, signals are not logged.
type SignalRecorder interface {
	Record(ctx context.Context, event *audit.SignalEvent) error
}

// Telemetry writes time-series metrics. Satisfied by *influxdb.Client.
// Optional - if nil, no metrics are written.
type Telemetry interface {
	WriteSignal(protocol, device, command int32, source string, emissions int)
	WriteEmission(remote, keymap string, keycode int32)
	WriteReceiverStats(received, translated, malformed uint64)
}

// Logger is the interface for optional structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options holds configuration for creating a receiver.
type Options struct {
	// MQTTClient is the MQTT client implementation. Required.
	MQTTClient MQTTClient

	// Translator is the keymap registry. Required.
	Translator Translator

	// Recorder is the optional signal log repository.
	Recorder SignalRecorder

	// Telemetry is the optional metrics writer.
	Telemetry Telemetry

	// Logger is optional structured logger.
	Logger Logger

	// TopicPrefix overrides the default "irkeyd" topic prefix.
	TopicPrefix string

	// PublishEvents enables publishing translation events back to MQTT.
	PublishEvents bool

	// HealthInterval is how often health reports are published.
	// Zero means the default of 30 seconds.
	HealthInterval time.Duration

	// QoS is the MQTT QoS level for subscriptions and publishes.
	QoS byte
}

// Receiver consumes decoded signals from MQTT and runs them through the
// translation registry.
//
// Thread Safety: All methods are safe for concurrent use.
type Receiver struct {
	mqtt       MQTTClient
	translator Translator
	recorder   SignalRecorder
	telemetry  Telemetry
	topics     mqtt.Topics
	publish    bool
	interval   time.Duration
	qos        byte

	// Throughput counters.
	received   atomic.Uint64
	translated atomic.Uint64
	malformed  atomic.Uint64

	// Translation event callback (optional, set via SetOnTranslation).
	onTranslation func(TranslationEvent)
	callbackMu    sync.RWMutex

	startedAt time.Time

	// Shutdown coordination.
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a new receiver. Call Start() to begin operation.
func New(opts Options) (*Receiver, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Translator == nil {
		return nil, fmt.Errorf("translator is required")
	}

	interval := opts.HealthInterval
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	return &Receiver{
		mqtt:       opts.MQTTClient,
		translator: opts.Translator,
		recorder:   opts.Recorder,
		telemetry:  opts.Telemetry,
		topics:     mqtt.Topics{Prefix: opts.TopicPrefix},
		publish:    opts.PublishEvents,
		interval:   interval,
		qos:        opts.QoS,
		done:       make(chan struct{}),
		ctx:        ctx,
		ctxCancel:  ctxCancel,
		logger:     opts.Logger,
	}, nil
}

// Start subscribes to signal topics and begins health reporting.
func (r *Receiver) Start(ctx context.Context) error {
	signalTopic := r.topics.AllSignals()
	if err := r.mqtt.Subscribe(signalTopic, r.qos, r.handleSignal); err != nil {
		return fmt.Errorf("subscribe to signals: %w", err)
	}
	r.logInfo("subscribed to signals", "topic", signalTopic)

	r.startedAt = time.Now()

	r.wg.Add(1)
	go r.healthLoop(ctx)

	// Publish an initial health report so the topic is populated immediately.
	r.publishHealth()

	r.logInfo("receiver started", "health_interval", r.interval.String())
	return nil
}

// Stop gracefully shuts down the receiver.
func (r *Receiver) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.ctxCancel()
		r.wg.Wait()
		r.logInfo("receiver stopped")
	})
}

// SetOnTranslation sets a callback invoked after each processed signal.
// Used to fan translation events out to WebSocket clients.
func (r *Receiver) SetOnTranslation(callback func(TranslationEvent)) {
	r.callbackMu.Lock()
	r.onTranslation = callback
	r.callbackMu.Unlock()
}

// Stats returns the current throughput counters.
func (r *Receiver) Stats() (received, translated, malformed uint64) {
	return r.received.Load(), r.translated.Load(), r.malformed.Load()
}

// handleSignal processes one decoded signal message.
func (r *Receiver) handleSignal(topic string, payload []byte) error {
	r.received.Add(1)

	sig, err := parseSignal(payload)
	if err != nil {
		r.malformed.Add(1)
		r.logWarn("dropping malformed signal", "topic", topic, "error", err)
		return err
	}

	source := decoderFromTopic(topic)
	event := r.Process(sig, source)
	if event.Matched {
		r.translated.Add(1)
	}
	return nil
}

// Process runs a signal through the registry and fans the outcome out to
// the signal log, telemetry, MQTT and the translation callback.
//
// It is also the entry point for signals injected via the HTTP API.
func (r *Receiver) Process(sig Signal, source string) TranslationEvent {
	emissions := r.translator.Translate(sig.Protocol, sig.Device, sig.Command)

	event := TranslationEvent{
		Signal:    sig,
		Source:    source,
		Matched:   len(emissions) > 0,
		Emissions: make([]EmittedKey, 0, len(emissions)),
		Timestamp: time.Now().UTC(),
	}
	for _, e := range emissions {
		event.Emissions = append(event.Emissions, EmittedKey{
			Remote:  e.Remote,
			Keymap:  e.Keymap,
			Keycode: e.Keycode,
		})
	}

	r.record(event)
	r.writeTelemetry(event)
	r.publishEvent(event)
	r.notify(event)

	return event
}

// record persists the signal event if a recorder is configured.
func (r *Receiver) record(event TranslationEvent) {
	if r.recorder == nil {
		return
	}

	err := r.recorder.Record(r.ctx, &audit.SignalEvent{
		Protocol:   event.Signal.Protocol,
		Device:     event.Signal.Device,
		Command:    event.Signal.Command,
		Matched:    event.Matched,
		Emissions:  len(event.Emissions),
		Source:     event.Source,
		ReceivedAt: event.Timestamp,
	})
	if err != nil {
		r.logError("failed to record signal", err)
	}
}

// writeTelemetry emits metric points if telemetry is configured.
func (r *Receiver) writeTelemetry(event TranslationEvent) {
	if r.telemetry == nil {
		return
	}

	r.telemetry.WriteSignal(event.Signal.Protocol, event.Signal.Device,
		event.Signal.Command, event.Source, len(event.Emissions))
	for _, e := range event.Emissions {
		r.telemetry.WriteEmission(e.Remote, e.Keymap, e.Keycode)
	}
}

// publishEvent publishes the translation event to MQTT if enabled.
func (r *Receiver) publishEvent(event TranslationEvent) {
	if !r.publish {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		r.logError("failed to marshal translation event", err)
		return
	}

	topic := r.topics.TranslationEvent()
	if err := r.mqtt.Publish(topic, payload, r.qos, false); err != nil {
		r.logError("failed to publish translation event", err)
	}
}

// notify invokes the translation callback if set.
func (r *Receiver) notify(event TranslationEvent) {
	r.callbackMu.RLock()
	callback := r.onTranslation
	r.callbackMu.RUnlock()

	if callback != nil {
		callback(event)
	}
}

// healthLoop publishes periodic health reports until shutdown.
func (r *Receiver) healthLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.publishHealth()
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// publishHealth publishes a health report and flushes counter telemetry.
func (r *Receiver) publishHealth() {
	received, translated, malformed := r.Stats()

	report := HealthReport{
		Status:        "ok",
		Received:      received,
		Translated:    translated,
		Malformed:     malformed,
		UptimeSeconds: int64(time.Since(r.startedAt).Seconds()),
		Timestamp:     time.Now().UTC(),
	}

	payload, err := json.Marshal(report)
	if err != nil {
		r.logError("failed to marshal health report", err)
		return
	}

	topic := r.topics.ReceiverHealth()
	if err := r.mqtt.Publish(topic, payload, r.qos, true); err != nil {
		r.logError("failed to publish health report", err)
	}

	if r.telemetry != nil {
		r.telemetry.WriteReceiverStats(received, translated, malformed)
	}
}

// logInfo logs an info message if logger is set.
func (r *Receiver) logInfo(msg string, keysAndValues ...any) {
	r.loggerMu.RLock()
	logger := r.logger
	r.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if logger is set.
func (r *Receiver) logWarn(msg string, keysAndValues ...any) {
	r.loggerMu.RLock()
	logger := r.logger
	r.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (r *Receiver) logError(msg string, err error) {
	r.loggerMu.RLock()
	logger := r.logger
	r.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
