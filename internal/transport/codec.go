package transport

import (
	"fmt"
	"time"

	"github.com/manaam216/gemns-integration/internal/device"
)

// Event is a decoded inbound frame.
type Event struct {
	// DeviceID is the fleet identity carried in the frame.
	DeviceID string

	// Kind drives the lifecycle transition for this event.
	Kind device.Event

	// Category is the device class hint for registration-on-first-sighting.
	Category device.Category

	// Attributes are the decoded payload values (leak, vibration, button...).
	Attributes map[string]any

	// Counter is the per-device event counter, where the framing carries one.
	Counter uint32

	// Timestamp is when the frame was decoded.
	Timestamp time.Time
}

// Command is an outbound device command awaiting encoding.
type Command struct {
	DeviceID string
	Name     string

	// Params carries command arguments, e.g. brightness int, rgb_color triple.
	Params map[string]any

	Timestamp time.Time
}

// Codec translates between raw frames and typed events/commands for one
// transport family. Implementations are stateless and safe for concurrent
// use.
type Codec interface {
	// Decode parses a raw inbound frame.
	// Failures wrap ErrFrameDecode; a failure that still recovered the
	// device identity returns a *FrameError carrying it.
	Decode(raw []byte) (Event, error)

	// Encode serialises an outbound command into a wire frame.
	Encode(cmd Command) ([]byte, error)
}

// CodecFor returns the codec for a transport family.
func CodecFor(t device.Transport) (Codec, error) {
	switch t {
	case device.TransportBLE:
		return BLECodec{}, nil
	case device.TransportZigbee:
		return ZigbeeCodec{}, nil
	case device.TransportGeneric:
		return GenericCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, t)
	}
}
