package transport

import (
	"errors"
	"fmt"
)

// Domain errors for frame decode and encode.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrFrameDecode is the base error for all inbound decode failures.
	ErrFrameDecode = errors.New("transport: frame decode failed")

	// ErrFrameTooShort is returned for truncated frames.
	ErrFrameTooShort = fmt.Errorf("%w: frame too short", ErrFrameDecode)

	// ErrBadChecksum is returned when the frame CRC does not match.
	ErrBadChecksum = fmt.Errorf("%w: checksum mismatch", ErrFrameDecode)

	// ErrUnknownCompany is returned for frames outside the Gemns namespace.
	ErrUnknownCompany = fmt.Errorf("%w: unknown company identifier", ErrFrameDecode)

	// ErrBadCommand is returned when a command cannot be encoded.
	ErrBadCommand = errors.New("transport: cannot encode command")

	// ErrUnknownTransport is returned for unrecognised transport kinds.
	ErrUnknownTransport = errors.New("transport: unknown transport")
)

// FrameError is a decode failure that still recovered the device identity.
// The dispatcher uses the identity to drive the offending device to its
// error state instead of silently dropping the frame.
type FrameError struct {
	DeviceID string
	Err      error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("device %s: %v", e.DeviceID, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}
