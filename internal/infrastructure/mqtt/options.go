package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/config"
)

const (
	connectTimeout   = 10 * time.Second
	operationTimeout = 5 * time.Second
	keepAlive        = 60 * time.Second

	// disconnectQuiesce is in milliseconds, as paho expects.
	disconnectQuiesce = 1000

	maxQoS         = 2
	maxPayloadSize = 1 << 20
	tlsMinVersion  = tls.VersionTLS12
)

// brokerURL returns tcp://host:port, or ssl:// when TLS is on.
func brokerURL(b config.MQTTBrokerConfig) string {
	scheme := "tcp"
	if b.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, b.Host, b.Port)
}

// clientOptions builds the paho options for cfg, with the device's Last
// Will set to a retained "offline" on its availability topic.
func clientOptions(cfg config.MQTTConfig, topics Topics) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL(cfg.Broker)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second).
		SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive).
		SetWill(topics.Availability(), PayloadOffline, 1, true)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}
	return opts
}
