package device

import "time"

// Device represents one managed end device in the fleet.
type Device struct {
	// Identity
	ID   string `json:"device_id"`
	Name string `json:"name"`

	// Classification
	Category  Category  `json:"category"`
	Transport Transport `json:"transport_kind"`

	// Lifecycle
	Status   Status    `json:"status"`
	LastSeen time.Time `json:"last_seen"`

	// Attributes holds category-specific values, e.g. brightness int 0-255,
	// rgb_color triple, moisture percent 0-100.
	Attributes Attributes `json:"attributes"`

	// Port is the handle of the dongle the device was last seen through.
	// Outbound commands are routed to this endpoint.
	Port string `json:"port,omitempty"`

	// CreatedManually marks devices added by an operator rather than
	// auto-created on first sighting.
	CreatedManually bool `json:"created_manually,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates a complete independent copy of the Device.
// The attributes map is cloned so modifications to the copy do not affect
// the original. This is essential for registry snapshot isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d // Shallow copy of value fields
	cpy.Attributes = deepCopyMap(d.Attributes)

	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, int, float64, etc.) are safe to copy by value
		return v
	}
}

// Attributes holds category-specific device values as a JSON map.
//
// Examples:
//   - Light: {"brightness": 200, "rgb_color": [255, 0, 0]}
//   - Sensor: {"moisture": 42, "leak": true}
type Attributes map[string]any

// Category represents the functional class of a device, governing which
// commands and attributes are valid.
type Category string

// Category constants.
const (
	CategorySensor Category = "sensor"
	CategorySwitch Category = "switch"
	CategoryLight  Category = "light"
	CategoryDoor   Category = "door"
	CategoryToggle Category = "toggle"
)

// AllCategories returns all valid category values.
func AllCategories() []Category {
	return []Category{
		CategorySensor, CategorySwitch, CategoryLight, CategoryDoor, CategoryToggle,
	}
}

// Transport represents the radio family a device communicates over.
type Transport string

// Transport constants.
const (
	TransportBLE     Transport = "ble"
	TransportZigbee  Transport = "zigbee"
	TransportGeneric Transport = "generic"
)

// AllTransports returns all valid transport values.
func AllTransports() []Transport {
	return []Transport{TransportBLE, TransportZigbee, TransportGeneric}
}

// Status represents a device's lifecycle state.
type Status string

// Status constants.
//
// disconnected is the pre-sighting resting state for manually registered
// devices; a first frame moves the device to connecting.
const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusIdentified   Status = "identified"
	StatusPaired       Status = "paired"
	StatusConnected    Status = "connected"
	StatusOffline      Status = "offline"
	StatusError        Status = "error"
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{
		StatusDisconnected, StatusConnecting, StatusIdentified,
		StatusPaired, StatusConnected, StatusOffline, StatusError,
	}
}
