// Package topic implements the Gemns address/topic codec.
//
// Every message the integration publishes or consumes lives under the
// "gemns" namespace root:
//
//	gemns/status                     integration status (optional scope)
//	gemns/dongle/{port}              dongle status
//	gemns/device/{id}                device state
//	gemns/device/{id}/command        inbound device command
//	gemns/control/ble                BLE discovery toggle
//	gemns/control/zigbee             Zigbee discovery toggle
//
// Parse decodes a raw topic into a tagged Address; Address.String formats
// it back. The codec guarantees Parse(a.String()) == a for every address
// built through the package constructors.
package topic
