package topic

import "fmt"

// String helpers for publishers and subscribers that only need the wire
// topic, not a parsed Address.

// Status returns the integration status topic.
//
// Example: gemns/status
func Status() string {
	return StatusAddress("").String()
}

// DongleStatus returns the status topic for a dongle handle.
//
// Example: gemns/dongle/tcp---127.0.0.1-20108
func DongleStatus(port string) string {
	return DongleStatusAddress(port).String()
}

// DeviceUpdate returns the state topic for a device.
//
// Example: gemns/device/gemns-1a2b3c
func DeviceUpdate(deviceID string) string {
	return DeviceUpdateAddress(deviceID).String()
}

// ControlBLE returns the BLE discovery toggle topic.
//
// Example: gemns/control/ble
func ControlBLE() string {
	return ControlAddress("ble").String()
}

// ControlZigbee returns the Zigbee discovery toggle topic.
//
// Example: gemns/control/zigbee
func ControlZigbee() string {
	return ControlAddress("zigbee").String()
}

// DeviceCommand returns the inbound command topic for a device.
//
// Example: gemns/device/gemns-1a2b3c/command
func DeviceCommand(deviceID string) string {
	return DeviceCommandAddress(deviceID).String()
}

// DeviceCommandWildcard returns a pattern matching all device command topics.
//
// Pattern: gemns/device/+/command
func DeviceCommandWildcard() string {
	return fmt.Sprintf("%s/device/+/command", Namespace)
}

// ControlWildcard returns a pattern matching both protocol toggle topics.
//
// Pattern: gemns/control/+
func ControlWildcard() string {
	return fmt.Sprintf("%s/control/+", Namespace)
}
