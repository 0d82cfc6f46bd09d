package dongle

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// Endpoint is a candidate dongle attachment point that can be probed
// during identification.
type Endpoint interface {
	// Probe writes the payload to the endpoint and returns whatever the
	// far side answers within the context deadline.
	Probe(ctx context.Context, payload []byte) ([]byte, error)

	// Port returns the stable handle this endpoint is addressed by.
	Port() string

	// ProtocolHint returns the protocol configured for this endpoint, or
	// ProtocolUnknown when the configuration is silent.
	ProtocolHint() Protocol
}

const probeReadLimit = 256

// SocketEndpoint probes a dongle reachable over a stream socket. Serial
// dongles are exposed the same way through a serial-to-TCP shim, so one
// endpoint type covers both.
type SocketEndpoint struct {
	port string
	hint Protocol
}

// NewSocketEndpoint creates an endpoint for the given address. The address
// may carry a tcp:// or unix:// scheme; bare addresses dial TCP.
func NewSocketEndpoint(port string, hint Protocol) *SocketEndpoint {
	if hint == "" {
		hint = ProtocolUnknown
	}
	return &SocketEndpoint{port: port, hint: hint}
}

func (e *SocketEndpoint) Port() string { return e.port }

func (e *SocketEndpoint) ProtocolHint() Protocol { return e.hint }

// Probe dials the endpoint, writes the payload and reads one response.
// The context deadline bounds the whole exchange.
func (e *SocketEndpoint) Probe(ctx context.Context, payload []byte) ([]byte, error) {
	network, address := splitDialTarget(e.port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dongle: dial %s: %w", e.port, err)
	}
	defer conn.Close() //nolint:errcheck

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("dongle: set deadline on %s: %w", e.port, err)
		}
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("dongle: write to %s: %w", e.port, err)
	}

	buf := make([]byte, probeReadLimit)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("dongle: read from %s: %w", e.port, err)
	}
	return buf[:n], nil
}

func splitDialTarget(port string) (network, address string) {
	switch {
	case strings.HasPrefix(port, "tcp://"):
		return "tcp", strings.TrimPrefix(port, "tcp://")
	case strings.HasPrefix(port, "unix://"):
		return "unix", strings.TrimPrefix(port, "unix://")
	default:
		return "tcp", port
	}
}
