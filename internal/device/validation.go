package device

import (
	"fmt"

	"github.com/google/uuid"
)

// maxNameLength bounds device names to keep payloads and UI labels sane.
const maxNameLength = 100

// ValidateDevice checks a device for structural validity.
//
// Returns:
//   - error: Wrapping ErrInvalidDevice (or a more specific sentinel), or nil
func ValidateDevice(d *Device) error {
	if d == nil {
		return fmt.Errorf("%w: nil device", ErrInvalidDevice)
	}

	if d.ID == "" {
		return fmt.Errorf("%w: missing device_id", ErrInvalidDevice)
	}

	if len(d.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}

	if !validCategory(d.Category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, d.Category)
	}

	if !validTransport(d.Transport) {
		return fmt.Errorf("%w: %q", ErrInvalidTransport, d.Transport)
	}

	if !validStatus(d.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}

	return nil
}

func validCategory(c Category) bool {
	for _, valid := range AllCategories() {
		if c == valid {
			return true
		}
	}
	return false
}

func validTransport(t Transport) bool {
	for _, valid := range AllTransports() {
		if t == valid {
			return true
		}
	}
	return false
}

func validStatus(s Status) bool {
	for _, valid := range AllStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// GenerateID creates a new UUID for a manually registered device.
// Radio-sighted devices carry their own identity in the frame instead.
func GenerateID() string {
	return uuid.New().String()
}
