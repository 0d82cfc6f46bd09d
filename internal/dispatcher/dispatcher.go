package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/manaam216/gemns-integration/internal/device"
	"github.com/manaam216/gemns-integration/internal/dongle"
	"github.com/manaam216/gemns-integration/internal/infrastructure/mqtt"
	"github.com/manaam216/gemns-integration/internal/topic"
	"github.com/manaam216/gemns-integration/internal/transport"
)

// BusClient is the MQTT surface the dispatcher publishes and subscribes
// through.
type BusClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// TransportSink delivers an encoded frame to the dongle on the given port.
type TransportSink interface {
	Send(ctx context.Context, port string, frame []byte) error
}

// TelemetryWriter receives device telemetry for long-term storage. Writes
// are fire-and-forget.
type TelemetryWriter interface {
	WriteDeviceEvent(deviceID string, category device.Category, status device.Status, attributes map[string]any, at time.Time)
}

// Logger is the minimal logging surface the dispatcher needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Dispatcher routes inbound frames into lifecycle transitions and outbound
// commands onto dongles. It is the only writer of the device registry;
// every mutation runs under one mutex so frame handling, command handling
// and the inactivity sweep serialize against each other.
type Dispatcher struct {
	mu sync.Mutex

	registry  *device.Registry
	dongles   *dongle.Set
	bus       BusClient
	sink      TransportSink
	telemetry TelemetryWriter

	qos    byte
	logger Logger
	now    func() time.Time
}

// Options configures a Dispatcher. Registry, Dongles and Bus are
// required; Sink is required for command routing; Telemetry and Logger
// are optional.
type Options struct {
	Registry  *device.Registry
	Dongles   *dongle.Set
	Bus       BusClient
	Sink      TransportSink
	Telemetry TelemetryWriter
	QoS       byte
	Logger    Logger
}

// New creates a Dispatcher from the given options.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		registry:  opts.Registry,
		dongles:   opts.Dongles,
		bus:       opts.Bus,
		sink:      opts.Sink,
		telemetry: opts.Telemetry,
		qos:       opts.QoS,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if d.logger == nil {
		d.logger = noopLogger{}
	}
	return d
}

// Start subscribes the dispatcher to its inbound MQTT topics: device
// commands and protocol control.
func (d *Dispatcher) Start(ctx context.Context) error {
	if err := d.bus.Subscribe(topic.DeviceCommandWildcard(), d.qos, func(t string, payload []byte) error {
		return d.handleCommandMessage(ctx, t, payload)
	}); err != nil {
		return err
	}

	return d.bus.Subscribe(topic.ControlWildcard(), d.qos, func(t string, payload []byte) error {
		return d.handleControlMessage(t, payload)
	})
}

// HandleInbound decodes a raw frame arriving on the given dongle port and
// applies the resulting lifecycle event. Frames from inactive dongles are
// dropped. A decode failure that still recovered the device identity
// drives that device into the error state.
func (d *Dispatcher) HandleInbound(ctx context.Context, port string, raw []byte) error {
	if !d.dongles.Active(port) {
		d.logger.Debug("dropping frame from inactive dongle", "port", port)
		return nil
	}

	dong, _ := d.dongles.Get(port)
	trans, ok := dong.Protocol.Transport()
	if !ok {
		return nil
	}

	codec, err := transport.CodecFor(trans)
	if err != nil {
		return err
	}

	ev, err := codec.Decode(raw)
	if err != nil {
		var fe *transport.FrameError
		if errors.As(err, &fe) {
			d.logger.Warn("malformed frame",
				"port", port,
				"device_id", fe.DeviceID,
				"error", fe.Err)
			return d.markError(fe.DeviceID, trans, port)
		}
		d.logger.Warn("undecodable frame dropped", "port", port, "error", err)
		return nil
	}

	return d.apply(ev, trans, port)
}

// apply runs the lifecycle transition for a decoded event and publishes
// the device state when it changed.
func (d *Dispatcher) apply(ev transport.Event, trans device.Transport, port string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, created := d.resolve(ev.DeviceID, ev.Category, trans, port)

	next, changed := device.NextStatus(dev.Status, ev.Kind)

	prev := dev.Status
	dev.Status = next
	dev.LastSeen = ev.Timestamp
	dev.Port = port

	// Telemetry attributes land only once the device reaches connected.
	// Mid-handshake frames refresh last_seen and nothing else.
	merged := false
	if ev.Kind == device.EventTelemetry && next == device.StatusConnected && len(ev.Attributes) > 0 {
		if dev.Attributes == nil {
			dev.Attributes = make(device.Attributes, len(ev.Attributes))
		}
		for k, v := range ev.Attributes {
			dev.Attributes[k] = v
		}
		merged = true
	}

	if err := d.registry.Upsert(dev); err != nil {
		return err
	}

	if changed {
		d.logger.Info("device transition",
			"device_id", dev.ID,
			"from", prev,
			"to", next,
			"event", ev.Kind)
	}

	// A newly sighted device is published even when the event left it in
	// the creation state, so the bus sees the device exist at all.
	if changed || merged || created {
		d.publishDevice(dev)
	}

	if merged && d.telemetry != nil {
		d.telemetry.WriteDeviceEvent(dev.ID, dev.Category, dev.Status, ev.Attributes, ev.Timestamp)
	}

	return nil
}

// markError drives a device into the error state after a malformed frame
// that still identified it.
func (d *Dispatcher) markError(deviceID string, trans device.Transport, port string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, _ := d.resolve(deviceID, device.CategorySensor, trans, port)

	next, changed := device.NextStatus(dev.Status, device.EventMalformed)
	if !changed {
		return nil
	}

	dev.Status = next
	if err := d.registry.Upsert(dev); err != nil {
		return err
	}

	d.logger.Warn("device errored", "device_id", dev.ID, "port", port)
	d.publishDevice(dev)
	return nil
}

// resolve fetches the device or creates it in the connecting state: a
// frame arrived, so the device is mid-handshake at minimum. Only manual
// adds start out disconnected. Callers hold d.mu.
func (d *Dispatcher) resolve(id string, category device.Category, trans device.Transport, port string) (*device.Device, bool) {
	if dev, err := d.registry.Get(id); err == nil {
		return dev, false
	}

	d.logger.Info("new device sighted",
		"device_id", id,
		"category", category,
		"transport", trans,
		"port", port)

	return &device.Device{
		ID:        id,
		Category:  category,
		Transport: trans,
		Status:    device.StatusConnecting,
		Port:      port,
	}, true
}

// SweepInactive demotes devices whose last frame is older than the
// timeout. Devices in the error state keep it until they speak again.
func (d *Dispatcher) SweepInactive(now time.Time, timeout time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, dev := range d.registry.List() {
		if !device.ShouldDemote(dev.Status, dev.LastSeen, now, timeout) {
			continue
		}

		prev := dev.Status
		dev.Status = device.StatusOffline
		if err := d.registry.Upsert(&dev); err != nil {
			d.logger.Error("offline demotion failed", "device_id", dev.ID, "error", err)
			continue
		}

		d.logger.Info("device offline",
			"device_id", dev.ID,
			"was", prev,
			"last_seen", dev.LastSeen)
		d.publishDevice(&dev)
	}
}

// publishDevice emits the device snapshot on its update topic, retained so
// late subscribers see current state. Callers hold d.mu.
func (d *Dispatcher) publishDevice(dev *device.Device) {
	payload, err := json.Marshal(dev)
	if err != nil {
		d.logger.Error("device snapshot marshal failed", "device_id", dev.ID, "error", err)
		return
	}

	if err := d.bus.Publish(topic.DeviceUpdate(dev.ID), payload, d.qos, true); err != nil {
		d.logger.Error("device update publish failed", "device_id", dev.ID, "error", err)
	}
}

// controlPayload is the body of a gemns/control/{protocol} message.
type controlPayload struct {
	Enabled *bool `json:"enabled"`
}

// handleControlMessage flips a protocol master toggle and republishes the
// status of every dongle speaking that protocol.
func (d *Dispatcher) handleControlMessage(raw string, payload []byte) error {
	addr, err := topic.Parse(raw)
	if err != nil || addr.Kind != topic.KindControl {
		d.logger.Warn("control message on unexpected topic", "topic", raw)
		return nil
	}

	var body controlPayload
	if err := json.Unmarshal(payload, &body); err != nil || body.Enabled == nil {
		d.logger.Warn("malformed control payload", "topic", raw)
		return ErrBadPayload
	}

	proto := dongle.Protocol(addr.Protocol)
	d.dongles.SetProtocolEnabled(proto, *body.Enabled)
	d.logger.Info("protocol toggled", "protocol", proto, "enabled", *body.Enabled)

	for _, dong := range d.dongles.List() {
		if dong.Protocol == proto {
			d.PublishDongleStatus(dong)
		}
	}
	return nil
}

// dongleStatusPayload is the body published on gemns/dongle/{port}. The
// enabled field reports effective enablement: the per-dongle flag gated by
// the protocol master toggle, so a protocol toggle is visible on every
// dongle it silences.
type dongleStatusPayload struct {
	Port          string    `json:"port"`
	Protocol      string    `json:"protocol"`
	Enabled       bool      `json:"enabled"`
	Active        bool      `json:"active"`
	LastHandshake time.Time `json:"last_handshake"`
}

// PublishDongleStatus emits a dongle's current state, retained.
func (d *Dispatcher) PublishDongleStatus(dong dongle.Dongle) {
	payload, err := json.Marshal(dongleStatusPayload{
		Port:          dong.Port,
		Protocol:      string(dong.Protocol),
		Enabled:       dong.Enabled && d.dongles.ProtocolEnabled(dong.Protocol),
		Active:        d.dongles.Active(dong.Port),
		LastHandshake: dong.LastHandshake,
	})
	if err != nil {
		return
	}

	if err := d.bus.Publish(topic.DongleStatus(dong.Port), payload, d.qos, true); err != nil {
		d.logger.Error("dongle status publish failed", "port", dong.Port, "error", err)
	}
}

// PublishDongleGone clears the retained status of a removed dongle. A
// zero-length retained publish deletes the broker's retained message, so
// late subscribers no longer see hardware that is gone.
func (d *Dispatcher) PublishDongleGone(port string) {
	if err := d.bus.Publish(topic.DongleStatus(port), nil, d.qos, true); err != nil {
		d.logger.Error("dongle status clear failed", "port", port, "error", err)
	}
}
