// Package transport decodes inbound frames from dongles into lifecycle
// events and encodes outbound commands into the framing each dongle
// expects.
//
// Three codecs exist. BLECodec handles the 20-byte energy-harvesting
// advertisement frame with its CRC-8 trailer. ZigbeeCodec and
// GenericCodec share a JSON envelope carrying device id, message type,
// attributes and timestamp.
//
// Decode failures where the device identity could still be read return a
// *FrameError so the caller can mark that specific device as errored
// instead of dropping the frame silently.
package transport
