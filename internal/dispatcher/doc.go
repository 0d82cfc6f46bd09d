// Package dispatcher is the hub between dongles, the device registry and
// the MQTT bus.
//
// Inbound, it decodes frames with the transport codec for the dongle's
// protocol, applies the lifecycle transition and publishes the device
// snapshot on its update topic whenever the state changed. Outbound, it
// validates commands against device categories, encodes them and routes
// them to the dongle the device was last seen on.
//
// All registry writes funnel through the dispatcher's mutex, so frame
// handling, command handling and the periodic inactivity sweep never
// interleave.
package dispatcher
