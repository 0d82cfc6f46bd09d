package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the in-memory authoritative mapping of device ID to Device.
//
// The registry itself is the source of truth at runtime. Persistence is a
// snapshot concern only: LoadFrom at startup, SaveTo at shutdown. Writers
// (the dispatcher and the scheduler's sweep) serialise their mutations
// externally; the registry's own lock makes individual operations safe for
// concurrent readers.
//
// All reads return deep copies so callers can never mutate registry state
// through a returned pointer.
type Registry struct {
	devices map[string]*Device
	mu      sync.RWMutex
	logger  Logger
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]*Device),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register adds a new device through the manual-add path.
// Returns ErrDeviceExists if the ID is already present.
func (r *Registry) Register(d *Device) error {
	if d.ID == "" {
		d.ID = GenerateID()
	}
	d.CreatedManually = true

	// Manual adds start disconnected; only an actual frame moves a device
	// into the handshake.
	if d.Status == "" {
		d.Status = StatusDisconnected
	}

	if err := ValidateDevice(d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[d.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDeviceExists, d.ID)
	}

	now := time.Now().UTC()
	stored := d.DeepCopy()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.devices[d.ID] = stored

	r.logger.Info("device registered", "id", d.ID, "category", d.Category, "transport", d.Transport)
	return nil
}

// Upsert stores a device, replacing any existing record with the same ID.
// This is the write path for dispatcher-applied transitions.
func (r *Registry) Upsert(d *Device) error {
	if err := ValidateDevice(d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := d.DeepCopy()
	stored.UpdatedAt = time.Now().UTC()
	if existing, ok := r.devices[d.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}
	r.devices[d.ID] = stored

	return nil
}

// Get retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) Get(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return d.DeepCopy(), nil
}

// List retrieves all devices.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, *d.DeepCopy())
	}
	return devices
}

// ListByStatus retrieves all devices currently in the given status.
func (r *Registry) ListByStatus(status Status) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var devices []Device
	for _, d := range r.devices {
		if d.Status == status {
			devices = append(devices, *d.DeepCopy())
		}
	}
	return devices
}

// Remove deletes a device. Removal is an explicit operator action; devices
// are never destroyed automatically.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	delete(r.devices, id)

	r.logger.Info("device removed", "id", id)
	return nil
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// LoadFrom replaces the registry contents with the repository snapshot.
// Called once at startup.
func (r *Registry) LoadFrom(ctx context.Context, repo Repository) error {
	devices, err := repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading device snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.devices[d.ID] = d.DeepCopy()
	}

	r.logger.Info("device snapshot loaded", "count", len(devices))
	return nil
}

// SaveTo writes the registry contents to the repository as a snapshot.
// Called once at shutdown.
func (r *Registry) SaveTo(ctx context.Context, repo Repository) error {
	r.mu.RLock()
	devices := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d.DeepCopy())
	}
	r.mu.RUnlock()

	if err := repo.SaveAll(ctx, devices); err != nil {
		return fmt.Errorf("saving device snapshot: %w", err)
	}

	r.logger.Info("device snapshot saved", "count", len(devices))
	return nil
}

// Stats returns registry statistics for monitoring.
type Stats struct {
	TotalDevices int
	ByStatus     map[Status]int
	ByTransport  map[Transport]int
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		TotalDevices: len(r.devices),
		ByStatus:     make(map[Status]int),
		ByTransport:  make(map[Transport]int),
	}

	for _, d := range r.devices {
		stats.ByStatus[d.Status]++
		stats.ByTransport[d.Transport]++
	}

	return stats
}
