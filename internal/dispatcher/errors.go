package dispatcher

import "errors"

var (
	// ErrUnknownDevice indicates a command targeted a device the registry
	// has never seen.
	ErrUnknownDevice = errors.New("dispatcher: unknown device")

	// ErrUnsupportedCommand indicates the device's category does not
	// accept this command.
	ErrUnsupportedCommand = errors.New("dispatcher: unsupported command for device category")

	// ErrNoRoute indicates the device has no active dongle to send
	// through.
	ErrNoRoute = errors.New("dispatcher: no active dongle for device")

	// ErrBadPayload indicates a control or command payload that failed to
	// parse.
	ErrBadPayload = errors.New("dispatcher: malformed payload")
)
