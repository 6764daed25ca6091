package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Seeed HA device daemon.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	HTTP      HTTPConfig      `yaml:"http"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	BLE       BLEConfig       `yaml:"ble"`
	HAState   HAStateConfig   `yaml:"hastate"`
	MDNS      MDNSConfig      `yaml:"mdns"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Database  DatabaseConfig  `yaml:"database"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	Entities  EntitiesConfig  `yaml:"entities"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig contains the identity advertised to Home Assistant.
type DeviceConfig struct {
	Name  string `yaml:"name"`
	Model string `yaml:"model"`
	// Interface is the network interface whose MAC forms the device ID.
	// Empty picks the first non-loopback interface with a hardware address.
	Interface string `yaml:"interface"`
	// MAC overrides the detected hardware address (e.g. "AA:BB:CC:DD:EE:FF").
	MAC string `yaml:"mac"`
}

// HTTPConfig contains the device HTTP server settings (status page, /info).
type HTTPConfig struct {
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Timeouts HTTPTimeoutConfig `yaml:"timeouts"`
}

// HTTPTimeoutConfig contains HTTP timeout settings in seconds.
type HTTPTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains the sync protocol server settings.
type WebSocketConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	// HeartbeatInterval is the application ping period in seconds.
	HeartbeatInterval int `yaml:"heartbeat_interval"`
	// PongTimeout is the transport-level read deadline in seconds.
	PongTimeout int `yaml:"pong_timeout"`
}

// BLEConfig contains BTHome advertising and GATT control settings.
type BLEConfig struct {
	Enabled bool `yaml:"enabled"`
	Control bool `yaml:"control"`
	// Name is the advertised local name. Empty uses device.name.
	Name string `yaml:"name"`
	// AdvertiseInterval is the refresh period in milliseconds.
	AdvertiseInterval int `yaml:"advertise_interval"`
	EnableRetries     int `yaml:"enable_retries"`
}

// HAStateConfig bounds the store of states pushed by Home Assistant.
type HAStateConfig struct {
	MaxEntities int `yaml:"max_entities"`
}

// MDNSConfig contains the zeroconf advertisement settings.
type MDNSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Service string `yaml:"service"`
	Domain  string `yaml:"domain"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled         bool                `yaml:"enabled"`
	Broker          MQTTBrokerConfig    `yaml:"broker"`
	Auth            MQTTAuthConfig      `yaml:"auth"`
	QoS             int                 `yaml:"qos"`
	Reconnect       MQTTReconnectConfig `yaml:"reconnect"`
	DiscoveryPrefix string              `yaml:"discovery_prefix"`
	TopicPrefix     string              `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// DatabaseConfig contains SQLite settings for the state journal.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
	// RetentionDays prunes journal rows older than this on startup. 0 keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

// GPIOConfig contains GPIO character device settings.
type GPIOConfig struct {
	Enabled bool   `yaml:"enabled"`
	Chip    string `yaml:"chip"`
	// Switches maps switch entity IDs to output line offsets.
	Switches map[string]int `yaml:"switches"`
	// ResetLine is the input line offset of the reset button. Negative disables it.
	ResetLine int `yaml:"reset_line"`
	// LongPress is the hold time in milliseconds that triggers a reset.
	LongPress int `yaml:"long_press"`
}

// EntitiesConfig declares entities registered at startup in file order.
type EntitiesConfig struct {
	Sensors  []SensorConfig `yaml:"sensors"`
	Switches []SwitchConfig `yaml:"switches"`
	BTHome   []BTHomeConfig `yaml:"bthome"`
}

// SensorConfig declares a read-only numeric entity.
type SensorConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	DeviceClass string `yaml:"device_class"`
	Unit        string `yaml:"unit"`
	StateClass  string `yaml:"state_class"`
	Icon        string `yaml:"icon"`
	Precision   *int   `yaml:"precision"`
	// BTHome optionally mirrors the sensor into the BLE advertisement
	// under the named object (e.g. "temperature").
	BTHome string `yaml:"bthome"`
}

// SwitchConfig declares a controllable boolean entity.
type SwitchConfig struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Icon    string `yaml:"icon"`
	Initial bool   `yaml:"initial"`
}

// BTHomeConfig declares a BLE-only sensor with a fixed initial value.
type BTHomeConfig struct {
	Object string   `yaml:"object"`
	Value  *float64 `yaml:"value"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SEEEDHA_SECTION_KEY
// For example: SEEEDHA_DEVICE_NAME, SEEEDHA_HTTP_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file; empty uses defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:  "Seeed HA Device",
			Model: "Seeed Linux Gateway",
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 80,
			Timeouts: HTTPTimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Host:              "0.0.0.0",
			Port:              81,
			Path:              "/",
			MaxMessageSize:    8192,
			HeartbeatInterval: 30,
			PongTimeout:       90,
		},
		BLE: BLEConfig{
			Enabled:           false,
			Control:           true,
			AdvertiseInterval: 5000,
			EnableRetries:     5,
		},
		HAState: HAStateConfig{
			MaxEntities: 16,
		},
		MDNS: MDNSConfig{
			Enabled: true,
			Service: "_seeed_ha._tcp",
			Domain:  "local.",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			DiscoveryPrefix: "homeassistant",
			TopicPrefix:     "seeed_ha",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Database: DatabaseConfig{
			Path:          "./data/seeedha.db",
			WALMode:       true,
			BusyTimeout:   5,
			RetentionDays: 30,
		},
		GPIO: GPIOConfig{
			Chip:      "gpiochip0",
			ResetLine: -1,
			LongPress: 6000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SEEEDHA_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("SEEEDHA_DEVICE_NAME"); v != "" {
		cfg.Device.Name = v
	}
	if v := os.Getenv("SEEEDHA_DEVICE_INTERFACE"); v != "" {
		cfg.Device.Interface = v
	}
	if v := os.Getenv("SEEEDHA_DEVICE_MAC"); v != "" {
		cfg.Device.MAC = v
	}

	// Servers
	if v := os.Getenv("SEEEDHA_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}
	if v := os.Getenv("SEEEDHA_WEBSOCKET_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.WebSocket.Port = port
		}
	}

	// MQTT
	if v := os.Getenv("SEEEDHA_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SEEEDHA_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SEEEDHA_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("SEEEDHA_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Database
	if v := os.Getenv("SEEEDHA_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Logging
	if v := os.Getenv("SEEEDHA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.Name == "" {
		errs = append(errs, "device.name is required")
	}

	if !validPort(c.HTTP.Port) {
		errs = append(errs, "http.port must be between 1 and 65535")
	}
	if !validPort(c.WebSocket.Port) {
		errs = append(errs, "websocket.port must be between 1 and 65535")
	}
	if c.HTTP.Port == c.WebSocket.Port && c.HTTP.Host == c.WebSocket.Host {
		errs = append(errs, "http.port and websocket.port must differ")
	}
	if !strings.HasPrefix(c.WebSocket.Path, "/") {
		errs = append(errs, "websocket.path must start with /")
	}
	if c.WebSocket.HeartbeatInterval < 1 {
		errs = append(errs, "websocket.heartbeat_interval must be positive")
	}

	if c.BLE.AdvertiseInterval < 100 { //nolint:mnd // BLE minimum refresh
		errs = append(errs, "ble.advertise_interval must be at least 100ms")
	}

	if c.HAState.MaxEntities < 1 {
		errs = append(errs, "hastate.max_entities must be positive")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.DiscoveryPrefix == "" {
		errs = append(errs, "mqtt.discovery_prefix is required when mqtt is enabled")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}

	if c.GPIO.Enabled && c.GPIO.LongPress < 1 {
		errs = append(errs, "gpio.long_press must be positive")
	}

	errs = append(errs, c.Entities.validate()...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (e EntitiesConfig) validate() []string {
	var errs []string
	seen := make(map[string]bool)
	check := func(kind string, i int, id string) {
		switch {
		case id == "":
			errs = append(errs, fmt.Sprintf("entities.%s[%d].id is required", kind, i))
		case seen[kind+"/"+id]:
			errs = append(errs, fmt.Sprintf("entities.%s[%d].id %q is duplicated", kind, i, id))
		}
		seen[kind+"/"+id] = true
	}
	for i, s := range e.Sensors {
		check("sensors", i, s.ID)
	}
	for i, s := range e.Switches {
		check("switches", i, s.ID)
	}
	for i, b := range e.BTHome {
		if b.Object == "" {
			errs = append(errs, fmt.Sprintf("entities.bthome[%d].object is required", i))
		}
	}
	return errs
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Idle) * time.Second
}

// GetHeartbeatInterval returns the WebSocket application heartbeat period.
func (c *Config) GetHeartbeatInterval() time.Duration {
	return time.Duration(c.WebSocket.HeartbeatInterval) * time.Second
}

// GetAdvertiseInterval returns the BLE advertisement refresh period.
func (c *Config) GetAdvertiseInterval() time.Duration {
	return time.Duration(c.BLE.AdvertiseInterval) * time.Millisecond
}

// GetLongPress returns the reset button hold duration.
func (c *Config) GetLongPress() time.Duration {
	return time.Duration(c.GPIO.LongPress) * time.Millisecond
}
