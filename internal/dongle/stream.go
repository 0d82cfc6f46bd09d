package dongle

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// FrameHandler receives each raw frame read off a dongle's stream.
type FrameHandler func(ctx context.Context, port string, frame []byte) error

// bleStreamFrameLen is the fixed advertisement frame size the BLE dongle
// relays over its stream. Zigbee coordinators emit newline-delimited JSON
// instead.
const bleStreamFrameLen = 20

const (
	listenerBackoffBase = time.Second
	listenerBackoffCap  = 30 * time.Second

	// listenerDialFailLimit is how many consecutive failed dials the
	// listener tolerates before declaring the endpoint gone.
	listenerDialFailLimit = 5
)

// Listener holds a long-lived connection to one dongle and feeds every
// frame it relays to the handler. Lost connections are redialed with
// exponential backoff; an endpoint that stops accepting connections
// altogether ends the listener with ErrEndpointLost so the owner can
// retire the dongle.
type Listener struct {
	port     string
	protocol Protocol
	handler  FrameHandler
	logger   Logger

	backoffBase   time.Duration
	backoffCap    time.Duration
	dialFailLimit int
}

// NewListener creates a listener for an identified dongle.
func NewListener(port string, protocol Protocol, handler FrameHandler, logger Logger) *Listener {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Listener{
		port:          port,
		protocol:      protocol,
		handler:       handler,
		logger:        logger,
		backoffBase:   listenerBackoffBase,
		backoffCap:    listenerBackoffCap,
		dialFailLimit: listenerDialFailLimit,
	}
}

// Run reads frames until the context is cancelled or the endpoint is
// declared lost. Read failures on an established connection are retried
// indefinitely; only consecutive dial failures count towards the loss
// limit, since an endpoint that accepted at least one connection is still
// there.
func (l *Listener) Run(ctx context.Context) error {
	backoff := l.backoffBase
	dialFails := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		dialed, err := l.readConn(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if dialed {
			dialFails = 0
		} else {
			dialFails++
			if dialFails >= l.dialFailLimit {
				return fmt.Errorf("%w: %s refused %d consecutive dials: %v",
					ErrEndpointLost, l.port, dialFails, err)
			}
		}

		if err != nil {
			l.logger.Warn("dongle stream lost",
				"port", l.port,
				"error", err,
				"retry_in", backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > l.backoffCap {
			backoff = l.backoffCap
		}
		if err == nil {
			backoff = l.backoffBase
		}
	}
}

// readConn dials the dongle and pumps frames until the connection drops.
// The dialed result tells the caller whether the endpoint accepted the
// connection at all; a connection that delivered frames returns nil on
// clean EOF, resetting the redial backoff.
func (l *Listener) readConn(ctx context.Context) (dialed bool, _ error) {
	network, address := splitDialTarget(l.port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close() //nolint:errcheck

	// Unblock the read when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now()) //nolint:errcheck
		case <-done:
		}
	}()

	l.logger.Info("dongle stream open", "port", l.port, "protocol", l.protocol)

	reader := bufio.NewReader(conn)
	for {
		frame, err := l.readFrame(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return true, nil
			}
			return true, fmt.Errorf("read: %w", err)
		}

		if err := l.handler(ctx, l.port, frame); err != nil {
			l.logger.Warn("frame handler failed", "port", l.port, "error", err)
		}
	}
}

// readFrame reads one frame according to the dongle's framing: BLE relays
// fixed-size advertisement frames, everything else newline-delimited JSON.
func (l *Listener) readFrame(r *bufio.Reader) ([]byte, error) {
	if l.protocol == ProtocolBLE {
		frame := make([]byte, bleStreamFrameLen)
		if _, err := io.ReadFull(r, frame); err != nil {
			return nil, err
		}
		return frame, nil
	}

	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return line, nil
}

// SocketSink delivers outbound frames by dialing the dongle's port per
// send. Command volume is low enough that connection reuse is not worth
// the bookkeeping.
type SocketSink struct {
	timeout time.Duration
}

// NewSocketSink creates a sink with the given per-send timeout.
func NewSocketSink(timeout time.Duration) *SocketSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SocketSink{timeout: timeout}
}

// Send writes one frame to the dongle on the given port.
func (s *SocketSink) Send(ctx context.Context, port string, frame []byte) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	network, address := splitDialTarget(port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(sendCtx, network, address)
	if err != nil {
		return fmt.Errorf("dongle: dial %s: %w", port, err)
	}
	defer conn.Close() //nolint:errcheck

	if deadline, ok := sendCtx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("dongle: set deadline on %s: %w", port, err)
		}
	}

	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("dongle: write to %s: %w", port, err)
	}
	return nil
}
