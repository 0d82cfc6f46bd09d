package dongle

import (
	"sort"
	"sync"
	"time"
)

// Set tracks every dongle seen on this host along with two layers of
// enablement: a per-dongle flag and a per-protocol master toggle. A dongle
// carries traffic only when both are on and its protocol is known.
//
// Thread Safety: all methods are safe for concurrent use.
type Set struct {
	mu       sync.RWMutex
	dongles  map[string]*Dongle
	protocol map[Protocol]bool
}

// NewSet creates an empty dongle set with both protocol toggles on.
func NewSet() *Set {
	return &Set{
		dongles: make(map[string]*Dongle),
		protocol: map[Protocol]bool{
			ProtocolBLE:    true,
			ProtocolZigbee: true,
		},
	}
}

// Upsert records a dongle by port, preserving the enabled flag of an
// existing entry. New dongles start enabled.
func (s *Set) Upsert(d Dongle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.dongles[d.Port]; ok {
		existing.Protocol = d.Protocol
		existing.LastHandshake = d.LastHandshake
		return
	}

	d.Enabled = true
	s.dongles[d.Port] = &d
}

// Remove forgets the dongle on the given port. Used when the endpoint
// disappears; a re-plugged dongle comes back through discovery as new.
// Returns false when the port was not known.
func (s *Set) Remove(port string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dongles[port]; !ok {
		return false
	}
	delete(s.dongles, port)
	return true
}

// Touch refreshes the handshake timestamp of a known dongle.
func (s *Set) Touch(port string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.dongles[port]; ok {
		d.LastHandshake = at
	}
}

// Get returns a copy of the dongle on the given port.
func (s *Set) Get(port string) (Dongle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dongles[port]
	if !ok {
		return Dongle{}, false
	}
	return *d, true
}

// List returns copies of all known dongles, sorted by port.
func (s *Set) List() []Dongle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Dongle, 0, len(s.dongles))
	for _, d := range s.dongles {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Port < out[j].Port })
	return out
}

// SetDongleEnabled flips the per-dongle flag. Returns false when the port
// is unknown.
func (s *Set) SetDongleEnabled(port string, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dongles[port]
	if !ok {
		return false
	}
	d.Enabled = enabled
	return true
}

// SetProtocolEnabled flips the master toggle for a whole protocol. The
// per-dongle flags are untouched so re-enabling restores the previous
// per-dongle state.
func (s *Set) SetProtocolEnabled(p Protocol, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protocol[p] = enabled
}

// ProtocolEnabled reports the master toggle for a protocol.
func (s *Set) ProtocolEnabled(p Protocol) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.protocol[p]
}

// Active reports whether the dongle on the given port may carry traffic:
// it exists, its protocol is identified, and both enablement layers are on.
func (s *Set) Active(port string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dongles[port]
	if !ok || !d.Enabled {
		return false
	}
	if _, known := d.Protocol.Transport(); !known {
		return false
	}
	return s.protocol[d.Protocol]
}

// ActiveDongles returns copies of every dongle currently able to carry
// traffic, sorted by port.
func (s *Set) ActiveDongles() []Dongle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Dongle
	for _, d := range s.dongles {
		if !d.Enabled {
			continue
		}
		if _, known := d.Protocol.Transport(); !known {
			continue
		}
		if !s.protocol[d.Protocol] {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Port < out[j].Port })
	return out
}

// Count returns the number of known dongles.
func (s *Set) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dongles)
}
