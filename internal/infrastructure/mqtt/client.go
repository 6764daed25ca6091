package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/config"
)

// Logger is the logging contract used by the client.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MessageHandler handles one received message. paho calls it on its own
// goroutine; a returned error is logged.
type MessageHandler func(topic string, payload []byte) error

type subscription struct {
	qos     byte
	handler MessageHandler
}

// Client is a broker connection bound to one device's topic tree.
type Client struct {
	client pahomqtt.Client
	qos    byte
	topics Topics

	mu            sync.RWMutex
	connected     bool
	subscriptions map[string]subscription
	onConnect     func()
	onDisconnect  func(err error)
	logger        Logger
}

// Connect dials the broker and waits for the first connection.
//
// An empty client ID becomes "seeed-ha-<deviceID>". Every (re)connect
// restores subscriptions, publishes "online" to the availability topic and
// then runs the SetOnConnect callback.
func Connect(cfg config.MQTTConfig, deviceID string) (*Client, error) {
	if cfg.Broker.ClientID == "" {
		cfg.Broker.ClientID = "seeed-ha-" + deviceID
	}

	c := newClient(cfg, NewTopics(cfg.DiscoveryPrefix, cfg.TopicPrefix, deviceID))

	opts := clientOptions(cfg, c.topics).
		SetOnConnectHandler(func(pahomqtt.Client) { c.handleConnect() }).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.handleConnectionLost(err) }).
		SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
			c.log().Warn("MQTT reconnecting", "broker", cfg.Broker.Host)
		})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The connect handler runs asynchronously; mark the client usable now.
	c.setConnected(true)
	return c, nil
}

func newClient(cfg config.MQTTConfig, topics Topics) *Client {
	return &Client{
		qos:           byte(cfg.QoS),
		topics:        topics,
		subscriptions: make(map[string]subscription),
		logger:        noopLogger{},
	}
}

func (c *Client) handleConnect() {
	c.setConnected(true)

	c.mu.RLock()
	subs := make(map[string]subscription, len(c.subscriptions))
	for topic, sub := range c.subscriptions {
		subs[topic] = sub
	}
	onConnect := c.onConnect
	c.mu.RUnlock()

	for topic, sub := range subs {
		c.client.Subscribe(topic, sub.qos, c.wrapHandler(sub.handler))
	}
	c.client.Publish(c.topics.Availability(), c.qos, true, PayloadOnline)
	c.log().Info("MQTT connected", "subscriptions", len(subs))

	if onConnect != nil {
		onConnect()
	}
}

func (c *Client) handleConnectionLost(err error) {
	c.setConnected(false)
	c.log().Warn("MQTT connection lost", "error", err)

	c.mu.RLock()
	onDisconnect := c.onDisconnect
	c.mu.RUnlock()
	if onDisconnect != nil {
		onDisconnect(err)
	}
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// Topics returns the device's topic builder.
func (c *Client) Topics() Topics {
	return c.topics
}

// IsConnected reports the last known connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// HealthCheck returns ErrNotConnected while the broker is unreachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close publishes "offline" to the availability topic and disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	if c.IsConnected() {
		c.client.Publish(c.topics.Availability(), c.qos, true, PayloadOffline).WaitTimeout(operationTimeout)
	}
	c.client.Disconnect(disconnectQuiesce)
	c.setConnected(false)
	return nil
}

// SetOnConnect sets a callback run after every connect and reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.mu.Lock()
	c.onConnect = callback
	c.mu.Unlock()
}

// SetOnDisconnect sets a callback run when the connection drops.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.mu.Lock()
	c.onDisconnect = callback
	c.mu.Unlock()
}

// SetLogger sets the logger for connection events and handler failures.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

func (c *Client) log() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.logger == nil {
		return noopLogger{}
	}
	return c.logger
}

// wrapHandler adapts handler to paho, logging returned errors and
// recovering panics.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.log().Error("MQTT handler panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.log().Warn("MQTT handler returned error", "topic", msg.Topic(), "error", err)
		}
	}
}
