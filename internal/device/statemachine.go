package device

import "time"

// Event is the kind of inbound occurrence driving a lifecycle transition.
type Event string

// Event constants.
const (
	// EventSighting is a discovery beacon or first frame from a device.
	EventSighting Event = "sighting"

	// EventPairingAck is the handshake acknowledgment after a sighting.
	EventPairingAck Event = "pairing_ack"

	// EventPairingConfirm is the final pairing confirmation.
	EventPairingConfirm Event = "pairing_confirm"

	// EventTelemetry is an ordinary data frame from a paired device.
	EventTelemetry Event = "telemetry"

	// EventMalformed marks a frame that decoded to a device identity but
	// violated the protocol.
	EventMalformed Event = "malformed"
)

// NextStatus computes the lifecycle transition for an event.
//
// The happy path is connecting → identified → paired → connected. A frame
// of any valid kind while offline or in error re-activates the device to
// connected. A malformed frame drives any state to error.
//
// Returns:
//   - Status: The state after the event
//   - bool: Whether the status changed (edge detection for publishes)
func NextStatus(current Status, event Event) (Status, bool) {
	if event == EventMalformed {
		return StatusError, current != StatusError
	}

	// Any valid frame clears error or offline back to connected.
	if current == StatusError || current == StatusOffline {
		return StatusConnected, true
	}

	switch event {
	case EventSighting:
		if current == StatusDisconnected {
			return StatusConnecting, true
		}

	case EventPairingAck:
		if current == StatusConnecting {
			return StatusIdentified, true
		}

	case EventPairingConfirm:
		if current == StatusIdentified {
			return StatusPaired, true
		}

	case EventTelemetry:
		if current == StatusPaired {
			return StatusConnected, true
		}
		// Telemetry while connecting/identified refreshes last_seen only;
		// the handshake has its own timeout.
	}

	return current, false
}

// ShouldDemote reports whether a device has been silent past the offline
// timeout. Only connected and paired devices are demoted; a device mid
// handshake, in error, or never sighted is not "offline".
func ShouldDemote(status Status, lastSeen, now time.Time, timeout time.Duration) bool {
	switch status {
	case StatusConnected, StatusPaired:
		return now.Sub(lastSeen) > timeout
	default:
		return false
	}
}
