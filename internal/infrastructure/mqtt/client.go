package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/manaam216/gemns-integration/internal/infrastructure/config"
	"github.com/manaam216/gemns-integration/internal/topic"
)

// Client is the bridge's connection to the MQTT broker. It wraps
// paho.mqtt.golang with the pieces the fleet manager needs: retained status
// publishing, a Last Will on gemns/status, and subscription replay after a
// reconnect.
//
// All methods are safe for concurrent use.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	// routes holds every active subscription so it can be replayed when the
	// broker connection comes back.
	routes  map[string]route
	routeMu sync.RWMutex

	connected bool
	stateMu   sync.RWMutex

	onConnect    func()
	onDisconnect func(err error)
	hookMu       sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// Logger is satisfied by logging.Logger and *slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type route struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler receives inbound messages. Paho invokes handlers on its own
// goroutines, so they must not block for long. A returned error is logged and
// otherwise ignored.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker described by cfg and returns a ready client.
//
// The connection carries a retained Last Will on gemns/status so consumers
// can tell a crash from a graceful shutdown, and once the session is up the
// client publishes the matching retained "online" payload. Reconnection is
// handled by paho with the backoff from cfg.Reconnect; tracked subscriptions
// are replayed on every reconnect.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	opts, err := buildClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	configureLWT(opts)

	c := &Client{
		cfg:     cfg,
		options: opts,
		routes:  make(map[string]route),
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.brokerUp()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.brokerDown(err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnect handler runs asynchronously; mark the client connected
	// here so IsConnected is true as soon as Connect returns.
	c.stateMu.Lock()
	c.connected = true
	c.stateMu.Unlock()

	return c, nil
}

func (c *Client) brokerUp() {
	c.stateMu.Lock()
	c.connected = true
	c.stateMu.Unlock()

	c.replayRoutes()
	c.client.Publish(topic.Status(), byte(c.cfg.QoS), true, buildStatePayload("online"))

	c.hookMu.RLock()
	hook := c.onConnect
	c.hookMu.RUnlock()
	if hook != nil {
		hook()
	}
}

func (c *Client) brokerDown(err error) {
	c.stateMu.Lock()
	c.connected = false
	c.stateMu.Unlock()

	c.hookMu.RLock()
	hook := c.onDisconnect
	c.hookMu.RUnlock()
	if hook != nil {
		hook(err)
	}
}

// replayRoutes re-subscribes every tracked topic after a reconnect. Errors
// are ignored here; paho retries the connection and calls brokerUp again.
func (c *Client) replayRoutes() {
	c.routeMu.RLock()
	defer c.routeMu.RUnlock()

	for _, r := range c.routes {
		c.client.Subscribe(r.topic, r.qos, c.adaptHandler(r.handler))
	}
}

// Close publishes a retained "offline" status and disconnects. Unlike the
// Last Will, this path marks a deliberate shutdown. Closing a client that
// never connected is a no-op.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		token := c.client.Publish(topic.Status(), byte(c.cfg.QoS), true, buildStatePayload("offline"))
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)

	c.stateMu.Lock()
	c.connected = false
	c.stateMu.Unlock()

	return nil
}

// HealthCheck reports whether the broker session is currently up.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports the last known connection state.
func (c *Client) IsConnected() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// SetOnConnect registers a hook invoked on the initial connect and on every
// reconnect.
func (c *Client) SetOnConnect(hook func()) {
	c.hookMu.Lock()
	c.onConnect = hook
	c.hookMu.Unlock()
}

// SetOnDisconnect registers a hook invoked when the broker session drops.
func (c *Client) SetOnDisconnect(hook func(err error)) {
	c.hookMu.Lock()
	c.onDisconnect = hook
	c.hookMu.Unlock()
}

// SetLogger attaches a logger for handler errors and recovered panics.
// Without one those are dropped silently.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) currentLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// adaptHandler converts a MessageHandler into paho's callback shape, adding
// panic recovery so a bad payload cannot take down the paho router.
func (c *Client) adaptHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if l := c.currentLogger(); l != nil {
					l.Error("mqtt handler panic recovered", "topic", msg.Topic(), "panic", r)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if l := c.currentLogger(); l != nil {
				l.Warn("mqtt handler error", "topic", msg.Topic(), "error", err)
			}
		}
	}
}
