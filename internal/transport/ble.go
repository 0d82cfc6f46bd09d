package transport

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/manaam216/gemns-integration/internal/device"
)

// BLE advertisement framing. One frame is exactly 20 bytes:
//
//	[0:2]   company identifier, 0x5750 little-endian
//	[2]     flags: bit0 encrypted, bit1 powered, bits2-3 counter LSBs,
//	        bits4-7 payload length
//	[3:6]   source id, 3 bytes little-endian
//	[6:8]   network id, 2 bytes little-endian
//	[8]     firmware version
//	[9:11]  sensor type, 2 bytes little-endian
//	[11:19] payload: event counter 3 bytes little-endian, report code,
//	        4 bytes reserved
//	[19]    CRC-8 (poly 0x07, init 0x00) over bytes [0:19]
const (
	bleFrameLen = 20

	bleCompanyID = 0x5750

	// Report codes carried in payload byte 3.
	bleReportPress          = 0x00
	bleReportVibration      = 0x01
	bleReportButtonOn       = 0x03
	bleReportLeak           = 0x04
	bleReportAnnounce       = 0x09
	bleReportPairingAck     = 0x0A
	bleReportPairingConfirm = 0x0B

	// Command codes for outbound frames.
	bleCommandOn            = 0x01
	bleCommandOff           = 0x02
	bleCommandToggle        = 0x03
	bleCommandOpen          = 0x04
	bleCommandClose         = 0x05
	bleCommandSetBrightness = 0x06
	bleCommandSetRGB        = 0x07
)

// bleSensorCategories maps the on-wire sensor type to a device category.
var bleSensorCategories = map[uint16]device.Category{
	0x0001: device.CategorySensor, // leak
	0x0002: device.CategorySensor, // vibration
	0x0003: device.CategoryToggle, // button
	0x0004: device.CategorySwitch,
	0x0005: device.CategoryLight,
	0x0006: device.CategoryDoor,
}

// BLECodec implements the Gemns BLE advertisement framing.
type BLECodec struct{}

// Decode parses one 20-byte advertisement frame.
func (BLECodec) Decode(raw []byte) (Event, error) {
	if len(raw) != bleFrameLen {
		return Event{}, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameTooShort, len(raw), bleFrameLen)
	}

	if binary.LittleEndian.Uint16(raw[0:2]) != bleCompanyID {
		return Event{}, fmt.Errorf("%w: 0x%04x", ErrUnknownCompany, binary.LittleEndian.Uint16(raw[0:2]))
	}

	if crc8(raw[:bleFrameLen-1]) != raw[bleFrameLen-1] {
		// An identity read out of a corrupt frame cannot be trusted.
		return Event{}, ErrBadChecksum
	}

	flags := raw[2]
	srcID := uint32(raw[3]) | uint32(raw[4])<<8 | uint32(raw[5])<<16
	sensorType := binary.LittleEndian.Uint16(raw[9:11])
	payload := raw[11:19]

	deviceID := fmt.Sprintf("gemns-%06x", srcID)
	counter := uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16

	// The flags carry the counter's two low bits for cheap liveness checks.
	if byte(counter&0x3) != (flags>>2)&0x3 {
		return Event{}, &FrameError{
			DeviceID: deviceID,
			Err:      fmt.Errorf("%w: counter bits disagree with flags", ErrFrameDecode),
		}
	}

	category, ok := bleSensorCategories[sensorType]
	if !ok {
		category = device.CategorySensor
	}

	ev := Event{
		DeviceID:  deviceID,
		Category:  category,
		Counter:   counter,
		Timestamp: time.Now().UTC(),
	}

	switch payload[3] {
	case bleReportAnnounce:
		ev.Kind = device.EventSighting
	case bleReportPairingAck:
		ev.Kind = device.EventPairingAck
	case bleReportPairingConfirm:
		ev.Kind = device.EventPairingConfirm
	case bleReportLeak:
		ev.Kind = device.EventTelemetry
		ev.Attributes = map[string]any{"leak": true}
	case bleReportVibration:
		ev.Kind = device.EventTelemetry
		ev.Attributes = map[string]any{"vibration": true}
	case bleReportButtonOn:
		ev.Kind = device.EventTelemetry
		ev.Attributes = map[string]any{"button": "on"}
	case bleReportPress:
		ev.Kind = device.EventTelemetry
		ev.Attributes = map[string]any{"button": "press"}
	default:
		return Event{}, &FrameError{
			DeviceID: deviceID,
			Err:      fmt.Errorf("%w: unknown report code 0x%02x", ErrFrameDecode, payload[3]),
		}
	}

	return ev, nil
}

// Encode serialises a command into the same 20-byte envelope the devices
// advertise with; the dongle forwards it over the radio.
func (BLECodec) Encode(cmd Command) ([]byte, error) {
	var srcID uint32
	if _, err := fmt.Sscanf(cmd.DeviceID, "gemns-%06x", &srcID); err != nil {
		return nil, fmt.Errorf("%w: device id %q has no radio identity", ErrBadCommand, cmd.DeviceID)
	}

	var payload [8]byte
	switch cmd.Name {
	case "on":
		payload[3] = bleCommandOn
	case "off":
		payload[3] = bleCommandOff
	case "toggle":
		payload[3] = bleCommandToggle
	case "open":
		payload[3] = bleCommandOpen
	case "close":
		payload[3] = bleCommandClose
	case "set_brightness":
		v, ok := intParam(cmd.Params, "brightness")
		if !ok || v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: set_brightness needs brightness 0-255", ErrBadCommand)
		}
		payload[3] = bleCommandSetBrightness
		payload[4] = byte(v)
	case "set_rgb":
		rgb, ok := rgbParam(cmd.Params, "rgb_color")
		if !ok {
			return nil, fmt.Errorf("%w: set_rgb needs rgb_color [r,g,b]", ErrBadCommand)
		}
		payload[3] = bleCommandSetRGB
		copy(payload[4:7], rgb[:])
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadCommand, cmd.Name)
	}

	frame := make([]byte, bleFrameLen)
	binary.LittleEndian.PutUint16(frame[0:2], bleCompanyID)
	frame[3] = byte(srcID)
	frame[4] = byte(srcID >> 8)
	frame[5] = byte(srcID >> 16)
	copy(frame[11:19], payload[:])
	frame[bleFrameLen-1] = crc8(frame[:bleFrameLen-1])

	return frame, nil
}

// crc8 computes CRC-8 with polynomial 0x07, init 0x00, no reflection.
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// intParam reads an integer command parameter, tolerating the numeric types
// JSON decoding produces.
func intParam(params map[string]any, key string) (int, bool) {
	return asInt(params[key])
}

// rgbParam reads an [r,g,b] triple command parameter.
func rgbParam(params map[string]any, key string) ([3]byte, bool) {
	var rgb [3]byte

	raw, ok := params[key].([]any)
	if !ok || len(raw) != 3 {
		return rgb, false
	}
	for i, elem := range raw {
		v, ok := asInt(elem)
		if !ok || v < 0 || v > 255 {
			return rgb, false
		}
		rgb[i] = byte(v)
	}
	return rgb, true
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
