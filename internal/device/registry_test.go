package device

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testDevice returns a valid device for registry tests.
func testDevice(id string) *Device {
	return &Device{
		ID:        id,
		Name:      "Leak Sensor",
		Category:  CategorySensor,
		Transport: TransportBLE,
		Status:    StatusConnecting,
		LastSeen:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Attributes: Attributes{
			"leak": false,
		},
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	d := testDevice("leak-01")
	if err := reg.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := reg.Get("leak-01")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "leak-01" || got.Category != CategorySensor {
		t.Errorf("Get() = %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("Register() should stamp created_at and updated_at")
	}
}

func TestRegistry_RegisterDefaultsDisconnected(t *testing.T) {
	reg := NewRegistry()

	d := testDevice("manual-01")
	d.Status = ""
	if err := reg.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, _ := reg.Get("manual-01")
	if got.Status != StatusDisconnected {
		t.Errorf("Status = %q, want disconnected for manual adds", got.Status)
	}
	if !got.CreatedManually {
		t.Error("Register() should mark the device as manually created")
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(testDevice("leak-01")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := reg.Register(testDevice("leak-01"))
	if !errors.Is(err, ErrDeviceExists) {
		t.Errorf("Register() error = %v, want ErrDeviceExists", err)
	}
}

func TestRegistry_RegisterGeneratesID(t *testing.T) {
	reg := NewRegistry()

	d := testDevice("")
	if err := reg.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if d.ID == "" {
		t.Error("Register() should generate an ID for manual adds")
	}
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	reg := NewRegistry()

	d := testDevice("bad-01")
	d.Category = "thermostat"

	err := reg.Register(d)
	if !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("Register() error = %v, want ErrInvalidCategory", err)
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("ghost")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Get() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(testDevice("leak-01")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	first, _ := reg.Get("leak-01")
	first.Attributes["leak"] = true
	first.Status = StatusError

	second, _ := reg.Get("leak-01")
	if second.Attributes["leak"] != false {
		t.Error("mutation through returned copy leaked into registry attributes")
	}
	if second.Status != StatusConnecting {
		t.Error("mutation through returned copy leaked into registry status")
	}
}

func TestRegistry_Upsert(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(testDevice("leak-01")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	created, _ := reg.Get("leak-01")

	updated := testDevice("leak-01")
	updated.Status = StatusConnected
	updated.Attributes = Attributes{"leak": true}
	if err := reg.Upsert(updated); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, _ := reg.Get("leak-01")
	if got.Status != StatusConnected {
		t.Errorf("Status = %s, want connected", got.Status)
	}
	if got.Attributes["leak"] != true {
		t.Errorf("Attributes = %+v", got.Attributes)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Error("Upsert() must preserve created_at of existing records")
	}
}

func TestRegistry_UpsertNewDevice(t *testing.T) {
	reg := NewRegistry()

	d := testDevice("leak-02")
	if err := reg.Upsert(d); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
}

func TestRegistry_ListByStatus(t *testing.T) {
	reg := NewRegistry()

	a := testDevice("a")
	a.Status = StatusConnected
	b := testDevice("b")
	b.Status = StatusOffline
	c := testDevice("c")
	c.Status = StatusConnected

	for _, d := range []*Device{a, b, c} {
		if err := reg.Register(d); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	connected := reg.ListByStatus(StatusConnected)
	if len(connected) != 2 {
		t.Errorf("ListByStatus(connected) = %d devices, want 2", len(connected))
	}
}

func TestRegistry_Remove(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(testDevice("leak-01")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := reg.Remove("leak-01"); err != nil {
		t.Errorf("Remove() error = %v", err)
	}

	if err := reg.Remove("leak-01"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Remove() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_GetStats(t *testing.T) {
	reg := NewRegistry()

	a := testDevice("a")
	a.Status = StatusConnected
	b := testDevice("b")
	b.Transport = TransportZigbee

	for _, d := range []*Device{a, b} {
		if err := reg.Register(d); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	stats := reg.GetStats()
	if stats.TotalDevices != 2 {
		t.Errorf("TotalDevices = %d, want 2", stats.TotalDevices)
	}
	if stats.ByStatus[StatusConnected] != 1 {
		t.Errorf("ByStatus[connected] = %d, want 1", stats.ByStatus[StatusConnected])
	}
	if stats.ByTransport[TransportZigbee] != 1 {
		t.Errorf("ByTransport[zigbee] = %d, want 1", stats.ByTransport[TransportZigbee])
	}
}

// MockRepository is an in-memory Repository for snapshot tests.
type MockRepository struct {
	devices []Device
	saveErr error
	loadErr error
}

func (m *MockRepository) LoadAll(ctx context.Context) ([]Device, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.devices, nil
}

func (m *MockRepository) SaveAll(ctx context.Context, devices []*Device) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.devices = make([]Device, 0, len(devices))
	for _, d := range devices {
		m.devices = append(m.devices, *d.DeepCopy())
	}
	return nil
}

func TestRegistry_LoadFrom(t *testing.T) {
	repo := &MockRepository{
		devices: []Device{*testDevice("leak-01"), *testDevice("leak-02")},
	}

	reg := NewRegistry()
	if err := reg.LoadFrom(context.Background(), repo); err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if reg.Count() != 2 {
		t.Errorf("Count() = %d, want 2", reg.Count())
	}
	if _, err := reg.Get("leak-02"); err != nil {
		t.Errorf("Get() after LoadFrom error = %v", err)
	}
}

func TestRegistry_LoadFromError(t *testing.T) {
	repo := &MockRepository{loadErr: errors.New("disk gone")}

	reg := NewRegistry()
	if err := reg.LoadFrom(context.Background(), repo); err == nil {
		t.Error("LoadFrom() expected error")
	}
}

func TestRegistry_SaveTo(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(testDevice("leak-01")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	repo := &MockRepository{}
	if err := reg.SaveTo(context.Background(), repo); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	if len(repo.devices) != 1 || repo.devices[0].ID != "leak-01" {
		t.Errorf("repository snapshot = %+v", repo.devices)
	}
}

func TestRegistry_SaveToError(t *testing.T) {
	reg := NewRegistry()
	repo := &MockRepository{saveErr: errors.New("disk full")}

	if err := reg.SaveTo(context.Background(), repo); err == nil {
		t.Error("SaveTo() expected error")
	}
}
