package dongle

import (
	"time"

	"github.com/manaam216/gemns-integration/internal/device"
)

// Protocol identifies the radio family a dongle bridges.
type Protocol string

// Protocol constants.
const (
	ProtocolBLE     Protocol = "ble"
	ProtocolZigbee  Protocol = "zigbee"
	ProtocolUnknown Protocol = "unknown"
)

// Transport maps the dongle protocol onto a device transport. Dongles with
// an unknown protocol cannot carry devices.
func (p Protocol) Transport() (device.Transport, bool) {
	switch p {
	case ProtocolBLE:
		return device.TransportBLE, true
	case ProtocolZigbee:
		return device.TransportZigbee, true
	default:
		return "", false
	}
}

// Dongle is a discovered radio bridge and its identification state.
type Dongle struct {
	// Port is the endpoint handle the dongle was found on, for example
	// "/dev/ttyUSB0" or "tcp://127.0.0.1:20108".
	Port string `json:"port"`

	// Protocol is what the dongle answered during identification.
	Protocol Protocol `json:"protocol"`

	// Enabled reflects the per-dongle runtime toggle. Disabled dongles are
	// kept in the set but skipped by discovery and traffic routing.
	Enabled bool `json:"enabled"`

	// LastHandshake is when identification last succeeded.
	LastHandshake time.Time `json:"last_handshake"`
}
