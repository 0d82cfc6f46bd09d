package device

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDevice(t *testing.T) {
	valid := func() *Device {
		return &Device{
			ID:        "leak-01",
			Name:      "Leak Sensor",
			Category:  CategorySensor,
			Transport: TransportBLE,
			Status:    StatusConnecting,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Device)
		wantErr error
	}{
		{
			name:   "valid device",
			mutate: func(d *Device) {},
		},
		{
			name:    "missing ID",
			mutate:  func(d *Device) { d.ID = "" },
			wantErr: ErrInvalidDevice,
		},
		{
			name:    "name too long",
			mutate:  func(d *Device) { d.Name = strings.Repeat("x", maxNameLength+1) },
			wantErr: ErrInvalidName,
		},
		{
			name:    "unknown category",
			mutate:  func(d *Device) { d.Category = "thermostat" },
			wantErr: ErrInvalidCategory,
		},
		{
			name:    "unknown transport",
			mutate:  func(d *Device) { d.Transport = "lora" },
			wantErr: ErrInvalidTransport,
		},
		{
			name:    "unknown status",
			mutate:  func(d *Device) { d.Status = "sleeping" },
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			err := ValidateDevice(d)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDevice() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDevice() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDevice_Nil(t *testing.T) {
	if err := ValidateDevice(nil); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("ValidateDevice(nil) error = %v, want ErrInvalidDevice", err)
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Fatal("GenerateID() returned empty string")
	}
	if a == b {
		t.Error("GenerateID() returned duplicate IDs")
	}
}

func TestDeviceDeepCopy(t *testing.T) {
	original := &Device{
		ID:        "leak-01",
		Category:  CategorySensor,
		Transport: TransportBLE,
		Status:    StatusConnected,
		Attributes: Attributes{
			"rgb_color": []any{255, 0, 0},
			"nested":    map[string]any{"leak": true},
		},
	}

	cpy := original.DeepCopy()

	cpy.Attributes["nested"].(map[string]any)["leak"] = false
	cpy.Attributes["rgb_color"].([]any)[0] = 0

	if original.Attributes["nested"].(map[string]any)["leak"] != true {
		t.Error("nested map mutation leaked into original")
	}
	if original.Attributes["rgb_color"].([]any)[0] != 255 {
		t.Error("slice mutation leaked into original")
	}
}

func TestDeviceDeepCopy_Nil(t *testing.T) {
	var d *Device
	if d.DeepCopy() != nil {
		t.Error("DeepCopy() of nil device should be nil")
	}
}
