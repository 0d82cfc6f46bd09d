package topic

import (
	"errors"
	"fmt"
	"strings"
)

// Namespace is the root segment of every Gemns topic.
const Namespace = "gemns"

// ErrMalformedTopic is returned by Parse for topics outside the Gemns
// hierarchy: wrong root, wrong segment count, empty or unrecognised segments.
var ErrMalformedTopic = errors.New("topic: malformed topic")

// Kind identifies which variant an Address holds.
type Kind string

const (
	// KindStatus is the integration-level status topic, optionally scoped.
	KindStatus Kind = "status"

	// KindDongleStatus is the per-dongle status topic.
	KindDongleStatus Kind = "dongle_status"

	// KindDeviceUpdate is the per-device state topic.
	KindDeviceUpdate Kind = "device_update"

	// KindControl is the per-protocol discovery toggle topic.
	KindControl Kind = "control"

	// KindDeviceCommand is the per-device inbound command topic.
	KindDeviceCommand Kind = "device_command"
)

// Address is a parsed Gemns topic. It is a tagged union over the topic
// variants; only the fields relevant to Kind are populated. Addresses are
// comparable, and Parse(a.String()) == a for every constructible a.
type Address struct {
	Kind Kind

	// Scope qualifies a Status address ("" for the bare status topic).
	Scope string

	// Port is the sanitised dongle handle for DongleStatus addresses.
	Port string

	// DeviceID is set for DeviceUpdate and DeviceCommand addresses.
	DeviceID string

	// Protocol is "ble" or "zigbee" for Control addresses.
	Protocol string
}

// StatusAddress returns the integration status Address.
// An empty scope yields the bare "gemns/status" topic.
func StatusAddress(scope string) Address {
	return Address{Kind: KindStatus, Scope: scope}
}

// DongleStatusAddress returns the status Address for a dongle handle.
// The handle is sanitised so endpoint URIs like "tcp://host:port" form a
// single topic segment.
func DongleStatusAddress(port string) Address {
	return Address{Kind: KindDongleStatus, Port: SanitizePort(port)}
}

// DeviceUpdateAddress returns the state Address for a device.
func DeviceUpdateAddress(deviceID string) Address {
	return Address{Kind: KindDeviceUpdate, DeviceID: deviceID}
}

// ControlAddress returns the discovery toggle Address for a protocol
// ("ble" or "zigbee").
func ControlAddress(protocol string) Address {
	return Address{Kind: KindControl, Protocol: protocol}
}

// DeviceCommandAddress returns the inbound command Address for a device.
func DeviceCommandAddress(deviceID string) Address {
	return Address{Kind: KindDeviceCommand, DeviceID: deviceID}
}

// String formats the Address as its wire topic.
func (a Address) String() string {
	switch a.Kind {
	case KindStatus:
		if a.Scope == "" {
			return Namespace + "/status"
		}
		return fmt.Sprintf("%s/status/%s", Namespace, a.Scope)
	case KindDongleStatus:
		return fmt.Sprintf("%s/dongle/%s", Namespace, a.Port)
	case KindDeviceUpdate:
		return fmt.Sprintf("%s/device/%s", Namespace, a.DeviceID)
	case KindControl:
		return fmt.Sprintf("%s/control/%s", Namespace, a.Protocol)
	case KindDeviceCommand:
		return fmt.Sprintf("%s/device/%s/command", Namespace, a.DeviceID)
	default:
		return ""
	}
}

// Parse decodes a raw topic string into an Address.
//
// Parsing is a fixed-arity match on the '/'-delimited hierarchy rooted at
// the Gemns namespace. Unknown roots, unknown segment counts, and empty
// segments fail with ErrMalformedTopic.
func Parse(raw string) (Address, error) {
	segments := strings.Split(raw, "/")
	if len(segments) < 2 || len(segments) > 4 {
		return Address{}, fmt.Errorf("%w: %q", ErrMalformedTopic, raw)
	}
	if segments[0] != Namespace {
		return Address{}, fmt.Errorf("%w: unknown root in %q", ErrMalformedTopic, raw)
	}
	for _, seg := range segments[1:] {
		if seg == "" {
			return Address{}, fmt.Errorf("%w: empty segment in %q", ErrMalformedTopic, raw)
		}
	}

	switch len(segments) {
	case 2:
		if segments[1] == "status" {
			return StatusAddress(""), nil
		}

	case 3:
		switch segments[1] {
		case "status":
			return StatusAddress(segments[2]), nil
		case "dongle":
			return Address{Kind: KindDongleStatus, Port: segments[2]}, nil
		case "device":
			return DeviceUpdateAddress(segments[2]), nil
		case "control":
			switch segments[2] {
			case "ble", "zigbee":
				return ControlAddress(segments[2]), nil
			}
		}

	case 4:
		if segments[1] == "device" && segments[3] == "command" {
			return DeviceCommandAddress(segments[2]), nil
		}
	}

	return Address{}, fmt.Errorf("%w: %q", ErrMalformedTopic, raw)
}

// SanitizePort collapses an endpoint handle into a single topic segment.
// Separator characters that would split or wildcard the topic are replaced
// with '-'.
func SanitizePort(port string) string {
	replacer := strings.NewReplacer("/", "-", ":", "-", "+", "-", "#", "-")
	return strings.Trim(replacer.Replace(port), "-")
}
