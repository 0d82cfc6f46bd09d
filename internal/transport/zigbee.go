package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/manaam216/gemns-integration/internal/device"
)

// jsonEnvelope is the wire format shared by the Zigbee coordinator and
// generic endpoints. Inbound and outbound messages use the same shape.
type jsonEnvelope struct {
	DeviceID   string         `json:"device_id"`
	Type       string         `json:"type"`
	Category   string         `json:"category,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Counter    uint32         `json:"counter,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// envelopeKinds maps the envelope type field to a lifecycle event.
var envelopeKinds = map[string]device.Event{
	"announce":        device.EventSighting,
	"pairing_ack":     device.EventPairingAck,
	"pairing_confirm": device.EventPairingConfirm,
	"telemetry":       device.EventTelemetry,
}

func decodeEnvelope(raw []byte) (Event, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrFrameDecode, err)
	}
	if env.DeviceID == "" {
		return Event{}, fmt.Errorf("%w: missing device_id", ErrFrameDecode)
	}

	kind, ok := envelopeKinds[env.Type]
	if !ok {
		return Event{}, &FrameError{
			DeviceID: env.DeviceID,
			Err:      fmt.Errorf("%w: unknown message type %q", ErrFrameDecode, env.Type),
		}
	}

	category := device.Category(env.Category)
	if env.Category == "" {
		category = device.CategorySensor
	}

	ts := env.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return Event{
		DeviceID:   env.DeviceID,
		Kind:       kind,
		Category:   category,
		Attributes: env.Attributes,
		Counter:    env.Counter,
		Timestamp:  ts,
	}, nil
}

func encodeEnvelope(cmd Command) ([]byte, error) {
	if cmd.Name == "" {
		return nil, fmt.Errorf("%w: empty command name", ErrBadCommand)
	}

	ts := cmd.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return json.Marshal(jsonEnvelope{
		DeviceID:   cmd.DeviceID,
		Type:       cmd.Name,
		Attributes: cmd.Params,
		Timestamp:  ts,
	})
}

// ZigbeeCodec speaks the JSON envelope the Zigbee coordinator emits.
type ZigbeeCodec struct{}

func (ZigbeeCodec) Decode(raw []byte) (Event, error) { return decodeEnvelope(raw) }

func (ZigbeeCodec) Encode(cmd Command) ([]byte, error) { return encodeEnvelope(cmd) }
