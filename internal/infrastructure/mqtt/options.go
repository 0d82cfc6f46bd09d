package mqtt

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/manaam216/gemns-integration/internal/infrastructure/config"
	"github.com/manaam216/gemns-integration/internal/topic"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// defaultBrokerPort is used when the broker URI omits a port.
	defaultBrokerPort = "1883"

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// parseBrokerURI resolves a broker URI like "mqtt://homeassistant:1883" into
// a paho broker URL and a TLS flag.
//
// Accepted schemes: mqtt, tcp (plaintext), mqtts, ssl (TLS).
func parseBrokerURI(broker string) (string, bool, error) {
	u, err := url.Parse(broker)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrInvalidBroker, err)
	}

	var scheme string
	var useTLS bool
	switch u.Scheme {
	case "mqtt", "tcp":
		scheme = "tcp"
	case "mqtts", "ssl":
		scheme = "ssl"
		useTLS = true
	default:
		return "", false, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBroker, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return "", false, fmt.Errorf("%w: missing host in %q", ErrInvalidBroker, broker)
	}
	port := u.Port()
	if port == "" {
		port = defaultBrokerPort
	}

	return fmt.Sprintf("%s://%s:%s", scheme, host, port), useTLS, nil
}

// buildClientOptions creates paho MQTT options from Gemns config.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// depending on the URI scheme)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Auto-reconnect with exponential backoff
//   - TLS configuration (if enabled)
//   - Clean session mode
func buildClientOptions(cfg config.MQTTConfig) (*pahomqtt.ClientOptions, error) {
	brokerURL, useTLS, err := parseBrokerURI(cfg.Broker)
	if err != nil {
		return nil, err
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL)

	// Client identification
	opts.SetClientID(cfg.ClientID)

	// Authentication (if credentials provided)
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Clean session - start fresh on connect (no persistent session on broker)
	opts.SetCleanSession(true)

	// Auto-reconnect with exponential backoff
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	// Connection timeout
	opts.SetConnectTimeout(defaultConnectTimeout)

	// Keepalive - broker sends PINGs to detect dead connections
	opts.SetKeepAlive(defaultKeepAlive)

	// TLS configuration if enabled
	if useTLS {
		tlsConfig := &tls.Config{
			MinVersion: tlsMinVersion,
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts, nil
}

// configureLWT sets up Last Will and Testament for offline detection.
//
// The LWT message is published by the broker if the client disconnects
// unexpectedly (crash, network failure, etc.). This allows Home Assistant
// and other consumers to detect when the integration goes offline.
//
// Topic: gemns/status
// QoS: 1 (guaranteed delivery)
// Retained: true (new subscribers see last status)
func configureLWT(opts *pahomqtt.ClientOptions) {
	opts.SetWill(topic.Status(), buildStatePayload("offline"), 1, true)
}

// buildStatePayload creates the JSON payload for integration status messages.
func buildStatePayload(state string) string {
	return fmt.Sprintf(
		`{"state":"%s","timestamp":"%s"}`,
		state,
		time.Now().UTC().Format(time.RFC3339),
	)
}
