package mqtt

import (
	"encoding/json"
	"fmt"
)

// Publish sends payload to topic and waits for the broker to acknowledge
// it at the requested QoS.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	case !c.IsConnected():
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(operationTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, operationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishString publishes a text payload.
func (c *Client) PublishString(topic, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// PublishRetained publishes a retained message at the configured QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, c.qos, true)
}

// PublishJSON publishes v as retained JSON, the form Home Assistant expects
// for discovery configs.
func (c *Client) PublishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %w", ErrPublishFailed, err)
	}
	return c.PublishRetained(topic, payload)
}

// Subscribe routes messages matching topic (wildcards allowed) to handler.
// The subscription is restored after every reconnect.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case handler == nil:
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	case !c.IsConnected():
		return ErrNotConnected
	}

	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))
	if !token.WaitTimeout(operationTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, operationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	c.mu.Lock()
	c.subscriptions[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()
	return nil
}

// HasSubscription reports whether topic is subscribed, by exact string.
func (c *Client) HasSubscription(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[topic]
	return ok
}
