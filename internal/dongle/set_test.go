package dongle

import (
	"testing"
	"time"
)

func TestSetUpsert(t *testing.T) {
	s := NewSet()

	s.Upsert(Dongle{Port: "/dev/ttyUSB0", Protocol: ProtocolBLE, LastHandshake: time.Now()})

	d, ok := s.Get("/dev/ttyUSB0")
	if !ok {
		t.Fatal("dongle not found after Upsert")
	}
	if !d.Enabled {
		t.Error("new dongle should start enabled")
	}
	if d.Protocol != ProtocolBLE {
		t.Errorf("Protocol = %q, want ble", d.Protocol)
	}
}

func TestSetUpsert_PreservesEnabledFlag(t *testing.T) {
	s := NewSet()
	s.Upsert(Dongle{Port: "/dev/ttyUSB0", Protocol: ProtocolBLE})
	s.SetDongleEnabled("/dev/ttyUSB0", false)

	// Re-identification refreshes protocol and handshake, not enablement.
	later := time.Now().Add(time.Minute)
	s.Upsert(Dongle{Port: "/dev/ttyUSB0", Protocol: ProtocolBLE, LastHandshake: later})

	d, _ := s.Get("/dev/ttyUSB0")
	if d.Enabled {
		t.Error("Upsert re-enabled a disabled dongle")
	}
	if !d.LastHandshake.Equal(later) {
		t.Errorf("LastHandshake = %v, want %v", d.LastHandshake, later)
	}
}

func TestSetRemove(t *testing.T) {
	s := NewSet()
	s.Upsert(Dongle{Port: "/dev/ttyUSB0", Protocol: ProtocolBLE})

	if !s.Remove("/dev/ttyUSB0") {
		t.Error("Remove() = false for known port")
	}
	if _, ok := s.Get("/dev/ttyUSB0"); ok {
		t.Error("dongle still present after Remove")
	}
	if s.Active("/dev/ttyUSB0") {
		t.Error("removed dongle reported active")
	}
	if s.Remove("/dev/ttyUSB0") {
		t.Error("Remove() = true for unknown port")
	}

	// A removed dongle coming back through discovery starts fresh.
	s.SetDongleEnabled("/dev/ttyUSB0", false)
	s.Upsert(Dongle{Port: "/dev/ttyUSB0", Protocol: ProtocolBLE})
	if d, _ := s.Get("/dev/ttyUSB0"); !d.Enabled {
		t.Error("re-discovered dongle should start enabled")
	}
}

func TestSetTouch(t *testing.T) {
	s := NewSet()
	s.Upsert(Dongle{Port: "/dev/ttyUSB0", Protocol: ProtocolBLE})

	at := time.Now().Add(time.Hour)
	s.Touch("/dev/ttyUSB0", at)

	d, _ := s.Get("/dev/ttyUSB0")
	if !d.LastHandshake.Equal(at) {
		t.Errorf("LastHandshake = %v, want %v", d.LastHandshake, at)
	}

	// Unknown ports are ignored.
	s.Touch("/dev/ttyUSB9", at)
}

func TestSetActive(t *testing.T) {
	s := NewSet()
	s.Upsert(Dongle{Port: "/dev/ttyUSB0", Protocol: ProtocolBLE})
	s.Upsert(Dongle{Port: "/dev/ttyUSB1", Protocol: ProtocolZigbee})
	s.Upsert(Dongle{Port: "/dev/ttyUSB2", Protocol: ProtocolUnknown})

	if !s.Active("/dev/ttyUSB0") || !s.Active("/dev/ttyUSB1") {
		t.Error("identified enabled dongles should be active")
	}
	if s.Active("/dev/ttyUSB2") {
		t.Error("unknown-protocol dongle should never be active")
	}
	if s.Active("/dev/ttyUSB9") {
		t.Error("unknown port should not be active")
	}

	s.SetDongleEnabled("/dev/ttyUSB0", false)
	if s.Active("/dev/ttyUSB0") {
		t.Error("disabled dongle should not be active")
	}

	s.SetProtocolEnabled(ProtocolZigbee, false)
	if s.Active("/dev/ttyUSB1") {
		t.Error("dongle should not be active with its protocol toggled off")
	}

	// Re-enabling the protocol restores the dongle without touching flags.
	s.SetProtocolEnabled(ProtocolZigbee, true)
	if !s.Active("/dev/ttyUSB1") {
		t.Error("dongle should be active again after protocol re-enable")
	}
	if s.Active("/dev/ttyUSB0") {
		t.Error("per-dongle disable should survive protocol toggling")
	}
}

func TestSetActiveDongles(t *testing.T) {
	s := NewSet()
	s.Upsert(Dongle{Port: "/dev/ttyUSB1", Protocol: ProtocolZigbee})
	s.Upsert(Dongle{Port: "/dev/ttyUSB0", Protocol: ProtocolBLE})
	s.Upsert(Dongle{Port: "/dev/ttyUSB2", Protocol: ProtocolUnknown})

	active := s.ActiveDongles()
	if len(active) != 2 {
		t.Fatalf("len(ActiveDongles()) = %d, want 2", len(active))
	}
	if active[0].Port != "/dev/ttyUSB0" || active[1].Port != "/dev/ttyUSB1" {
		t.Errorf("ports = %q, %q, want sorted ttyUSB0, ttyUSB1", active[0].Port, active[1].Port)
	}
}

func TestSetList_ReturnsCopies(t *testing.T) {
	s := NewSet()
	s.Upsert(Dongle{Port: "/dev/ttyUSB0", Protocol: ProtocolBLE})

	list := s.List()
	list[0].Enabled = false

	d, _ := s.Get("/dev/ttyUSB0")
	if !d.Enabled {
		t.Error("mutating a listed dongle leaked into the set")
	}
}

func TestProtocolTransport(t *testing.T) {
	if _, ok := ProtocolBLE.Transport(); !ok {
		t.Error("ble protocol should map to a transport")
	}
	if _, ok := ProtocolZigbee.Transport(); !ok {
		t.Error("zigbee protocol should map to a transport")
	}
	if _, ok := ProtocolUnknown.Transport(); ok {
		t.Error("unknown protocol must not map to a transport")
	}
}
