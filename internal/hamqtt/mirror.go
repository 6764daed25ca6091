package hamqtt

import (
	"fmt"

	"github.com/nerrad567/seeed-ha-core/internal/dispatch"
	"github.com/nerrad567/seeed-ha-core/internal/entity"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/mqtt"
)

// Broker is the subset of the MQTT client the mirror needs.
type Broker interface {
	Topics() mqtt.Topics
	PublishJSON(topic string, v any) error
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Dispatcher applies switch commands.
type Dispatcher interface {
	Dispatch(cmd dispatch.Command) error
}

// Logger is the logging contract used by the mirror.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Mirror publishes registry entities to Home Assistant over MQTT.
//
// It implements entity.Listener; register it with Registry.AddListener so
// state changes reach the broker.
type Mirror struct {
	broker   Broker
	registry *entity.Registry
	commands Dispatcher
	device   Device
	qos      byte
	logger   Logger
}

// New creates a mirror for the registry's entities.
func New(broker Broker, registry *entity.Registry, commands Dispatcher, device Device, qos byte) *Mirror {
	return &Mirror{
		broker:   broker,
		registry: registry,
		commands: commands,
		device:   device,
		qos:      qos,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger.
func (m *Mirror) SetLogger(logger Logger) {
	m.logger = logger
}

// Start announces every entity and subscribes to switch command topics.
// Subscriptions survive reconnects; call Announce from the client's
// on-connect callback to refresh retained configs and states.
func (m *Mirror) Start() error {
	if err := m.Announce(); err != nil {
		return err
	}
	if len(m.registry.Switches()) == 0 {
		return nil
	}
	if err := m.broker.Subscribe(m.broker.Topics().AllCommands(), m.qos, m.handleCommand); err != nil {
		return fmt.Errorf("subscribing to switch commands: %w", err)
	}
	return nil
}

// Announce publishes discovery configs followed by current states.
// It stops at the first publish failure.
func (m *Mirror) Announce() error {
	topics := m.broker.Topics()

	for _, s := range m.registry.Sensors() {
		snap := s.Snapshot()
		if err := m.broker.PublishJSON(topics.Config(ComponentSensor, snap.ID), SensorConfig(topics, m.device, snap)); err != nil {
			return fmt.Errorf("publishing sensor %q config: %w", snap.ID, err)
		}
	}
	for _, sw := range m.registry.Switches() {
		snap := sw.Snapshot()
		if err := m.broker.PublishJSON(topics.Config(ComponentSwitch, snap.ID), SwitchConfig(topics, m.device, snap)); err != nil {
			return fmt.Errorf("publishing switch %q config: %w", snap.ID, err)
		}
	}

	for _, s := range m.registry.Sensors() {
		if err := m.publishSensor(s.Snapshot()); err != nil {
			return err
		}
	}
	for _, sw := range m.registry.Switches() {
		if err := m.publishSwitch(sw.Snapshot()); err != nil {
			return err
		}
	}

	m.logger.Info("MQTT discovery announced",
		"sensors", len(m.registry.Sensors()),
		"switches", len(m.registry.Switches()),
	)
	return nil
}

// SensorChanged publishes the new sensor state.
func (m *Mirror) SensorChanged(s *entity.Sensor) {
	if err := m.publishSensor(s.Snapshot()); err != nil {
		m.logger.Warn("MQTT sensor publish failed", "entity_id", s.ID(), "error", err)
	}
}

// SwitchChanged publishes the new switch state.
func (m *Mirror) SwitchChanged(sw *entity.Switch) {
	if err := m.publishSwitch(sw.Snapshot()); err != nil {
		m.logger.Warn("MQTT switch publish failed", "entity_id", sw.ID(), "error", err)
	}
}

func (m *Mirror) publishSensor(snap entity.SensorSnapshot) error {
	payload, ok := SensorPayload(snap)
	if !ok {
		return nil
	}
	if err := m.broker.PublishRetained(m.broker.Topics().State(snap.ID), []byte(payload)); err != nil {
		return fmt.Errorf("publishing sensor %q state: %w", snap.ID, err)
	}
	return nil
}

func (m *Mirror) publishSwitch(snap entity.SwitchSnapshot) error {
	if err := m.broker.PublishRetained(m.broker.Topics().State(snap.ID), []byte(SwitchPayload(snap.State))); err != nil {
		return fmt.Errorf("publishing switch %q state: %w", snap.ID, err)
	}
	return nil
}

// handleCommand routes a switch command payload through the dispatcher.
func (m *Mirror) handleCommand(topic string, payload []byte) error {
	id, ok := m.broker.Topics().EntityFromCommand(topic)
	if !ok {
		return fmt.Errorf("unexpected command topic %q", topic)
	}
	m.logger.Debug("MQTT command received", "entity_id", id, "payload", string(payload))
	return m.commands.Dispatch(dispatch.FromPayload(id, string(payload)))
}
