package dongle

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Identification handshake. The manager writes a probe and the dongle
// firmware answers with its signature string.
const (
	probePayload = "who_are_you"

	signatureBLE    = "gemns-ble-dongle"
	signatureZigbee = "gemns-zigbee-coordinator"
)

// Logger is the minimal logging surface the identifier needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Identifier runs the identification handshake against candidate
// endpoints with retry and exponential backoff.
type Identifier struct {
	attempts     int
	backoffBase  time.Duration
	backoffCap   time.Duration
	probeTimeout time.Duration

	logger Logger
	now    func() time.Time
}

// IdentifierOptions configures an Identifier. Zero fields fall back to
// sensible defaults.
type IdentifierOptions struct {
	Attempts     int
	BackoffBase  time.Duration
	BackoffCap   time.Duration
	ProbeTimeout time.Duration
	Logger       Logger
}

// NewIdentifier creates an Identifier from the given options.
func NewIdentifier(opts IdentifierOptions) *Identifier {
	id := &Identifier{
		attempts:     opts.Attempts,
		backoffBase:  opts.BackoffBase,
		backoffCap:   opts.BackoffCap,
		probeTimeout: opts.ProbeTimeout,
		logger:       opts.Logger,
		now:          time.Now,
	}
	if id.attempts < 1 {
		id.attempts = 3
	}
	if id.backoffBase <= 0 {
		id.backoffBase = 500 * time.Millisecond
	}
	if id.backoffCap < id.backoffBase {
		id.backoffCap = 5 * time.Second
	}
	if id.probeTimeout <= 0 {
		id.probeTimeout = 2 * time.Second
	}
	if id.logger == nil {
		id.logger = noopLogger{}
	}
	return id
}

// Identify probes the endpoint until it answers or the attempts are
// exhausted. An answer that is not a known signature stops the retry loop
// immediately: the endpoint is alive, it is just not one of ours, and it
// is recorded with ProtocolUnknown so discovery does not probe it again.
//
// Returns ErrIdentificationTimeout when no attempt got an answer, or the
// context error if the caller cancelled mid-handshake.
func (i *Identifier) Identify(ctx context.Context, ep Endpoint) (Dongle, error) {
	var lastErr error

	for attempt := 1; attempt <= i.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Dongle{}, err
		}

		probeCtx, cancel := context.WithTimeout(ctx, i.probeTimeout)
		resp, err := ep.Probe(probeCtx, []byte(probePayload))
		cancel()

		if err != nil {
			lastErr = err
			i.logger.Debug("identification probe failed",
				"port", ep.Port(),
				"attempt", attempt,
				"error", err)

			if attempt < i.attempts {
				if err := i.sleep(ctx, i.backoff(attempt)); err != nil {
					return Dongle{}, err
				}
			}
			continue
		}

		proto, err := parseSignature(resp)
		if err != nil {
			i.logger.Warn("endpoint answered with unknown signature",
				"port", ep.Port(),
				"error", err)
			return Dongle{
				Port:          ep.Port(),
				Protocol:      ProtocolUnknown,
				LastHandshake: i.now(),
			}, nil
		}

		i.logger.Info("dongle identified",
			"port", ep.Port(),
			"protocol", proto,
			"attempt", attempt)
		return Dongle{
			Port:          ep.Port(),
			Protocol:      proto,
			LastHandshake: i.now(),
		}, nil
	}

	return Dongle{}, fmt.Errorf("%w: %s after %d attempts: %v",
		ErrIdentificationTimeout, ep.Port(), i.attempts, lastErr)
}

// backoff returns the delay before the next attempt: base doubled per
// attempt, capped.
func (i *Identifier) backoff(attempt int) time.Duration {
	d := i.backoffBase << (attempt - 1)
	if d > i.backoffCap || d <= 0 {
		d = i.backoffCap
	}
	return d
}

func (i *Identifier) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseSignature(resp []byte) (Protocol, error) {
	switch strings.TrimSpace(string(resp)) {
	case signatureBLE:
		return ProtocolBLE, nil
	case signatureZigbee:
		return ProtocolZigbee, nil
	default:
		return ProtocolUnknown, fmt.Errorf("%w: %q", ErrUnrecognizedResponse, truncate(resp))
	}
}

func truncate(b []byte) string {
	const max = 64
	s := string(b)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
