package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/manaam216/gemns-integration/internal/device"
	"github.com/manaam216/gemns-integration/internal/topic"
	"github.com/manaam216/gemns-integration/internal/transport"
)

// categoryCommands lists the commands each device category accepts.
// Sensors are read-only.
var categoryCommands = map[device.Category]map[string]bool{
	device.CategorySensor: {},
	device.CategoryLight: {
		"on": true, "off": true, "toggle": true,
		"set_brightness": true, "set_rgb": true,
	},
	device.CategorySwitch: {"on": true, "off": true, "toggle": true},
	device.CategoryToggle: {"on": true, "off": true, "toggle": true},
	device.CategoryDoor:   {"open": true, "close": true, "toggle": true},
}

// handleCommandMessage parses a command topic and payload and hands off to
// HandleCommand. Errors are logged, not returned to the broker.
//
// The payload is a flat JSON object: {"command":"set_brightness",
// "brightness":128}. Everything besides the command name and envelope
// fields is treated as a command parameter.
func (d *Dispatcher) handleCommandMessage(ctx context.Context, raw string, payload []byte) error {
	addr, err := topic.Parse(raw)
	if err != nil || addr.Kind != topic.KindDeviceCommand {
		d.logger.Warn("command on unexpected topic", "topic", raw)
		return nil
	}

	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		d.logger.Warn("malformed command payload", "topic", raw)
		return ErrBadPayload
	}
	name, _ := body["command"].(string)
	if name == "" {
		d.logger.Warn("command payload without command name", "topic", raw)
		return ErrBadPayload
	}
	params := make(map[string]any, len(body))
	for k, v := range body {
		switch k {
		case "command", "device_id", "timestamp":
		default:
			params[k] = v
		}
	}

	if err := d.HandleCommand(ctx, addr.DeviceID, name, params); err != nil {
		d.logger.Warn("command rejected",
			"device_id", addr.DeviceID,
			"command", name,
			"error", err)
		return err
	}
	return nil
}

// HandleCommand validates a command against the target device's category,
// encodes it with the device's transport codec and hands the frame to the
// dongle the device was last seen on. The device's lifecycle state is
// never touched: delivery to a harvesting device is best-effort and only
// a frame coming back proves anything.
func (d *Dispatcher) HandleCommand(ctx context.Context, deviceID, name string, params map[string]any) error {
	d.mu.Lock()
	dev, err := d.registry.Get(deviceID)
	d.mu.Unlock()
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
		}
		return err
	}

	if !categoryCommands[dev.Category][name] {
		return fmt.Errorf("%w: %q for %s", ErrUnsupportedCommand, name, dev.Category)
	}

	codec, err := transport.CodecFor(dev.Transport)
	if err != nil {
		return err
	}

	frame, err := codec.Encode(transport.Command{
		DeviceID:  dev.ID,
		Name:      name,
		Params:    params,
		Timestamp: d.now(),
	})
	if err != nil {
		return err
	}

	if dev.Port == "" || !d.dongles.Active(dev.Port) {
		return fmt.Errorf("%w: %s", ErrNoRoute, deviceID)
	}

	if err := d.sink.Send(ctx, dev.Port, frame); err != nil {
		return fmt.Errorf("dispatcher: send to %s: %w", dev.Port, err)
	}

	d.logger.Debug("command sent",
		"device_id", deviceID,
		"command", name,
		"port", dev.Port)
	return nil
}
