package ble

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/nerrad567/seeed-ha-core/internal/bthome"
	"github.com/nerrad567/seeed-ha-core/internal/entity"
)

// Logger defines the logging interface used by the Peripheral.
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

// Config configures a Peripheral.
type Config struct {
	Name              string
	Control           bool
	AdvertiseInterval time.Duration

	// EnableRetries is how many times Begin retries a failing radio enable.
	EnableRetries uint64
}

// Peripheral is the BLE face of a device.
//
// It implements EventHandler for its radio and entity.Listener for the
// registry, so switch changes from any transport reach the State
// characteristic, and bound entity sensors feed the advertisement.
type Peripheral struct {
	radio   Radio
	cfg     Config
	encoder *bthome.Encoder
	logger  Logger

	mu       sync.RWMutex
	switches []*entity.Switch
	switchIx map[*entity.Switch]int
	bindings map[*entity.Sensor]*bthome.Sensor

	running   atomic.Bool
	connected atomic.Bool
	packetID  atomic.Uint32
}

// New creates a Peripheral on radio.
func New(radio Radio, cfg Config) *Peripheral {
	if cfg.AdvertiseInterval <= 0 {
		cfg.AdvertiseInterval = DefaultAdvertiseInterval
	}
	if cfg.Name == "" {
		cfg.Name = "Seeed Sensor"
	}
	return &Peripheral{
		radio:    radio,
		cfg:      cfg,
		encoder:  bthome.NewEncoder(),
		logger:   noopLogger{},
		switchIx: make(map[*entity.Switch]int),
		bindings: make(map[*entity.Sensor]*bthome.Sensor),
	}
}

// SetLogger sets the logger for the peripheral.
func (p *Peripheral) SetLogger(logger Logger) {
	p.logger = logger
}

// Begin enables the radio, retrying with exponential backoff up to
// Config.EnableRetries times or until ctx is cancelled.
func (p *Peripheral) Begin(ctx context.Context) error {
	rc := RadioConfig{
		LocalName: p.cfg.Name,
		Control:   p.cfg.Control,
		Interval:  p.cfg.AdvertiseInterval,
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), p.cfg.EnableRetries),
		ctx,
	)
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if err := p.radio.Enable(rc, p); err != nil {
			p.logger.Warn("ble radio enable failed", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return fmt.Errorf("enabling radio: %w", err)
	}

	p.running.Store(true)
	p.logger.Info("ble peripheral started", "name", p.cfg.Name, "control", p.cfg.Control)
	return nil
}

// AddSensor registers a BTHome sensor for the advertisement.
//
// Returns ErrAdvertisementFull when the sensor's record would not fit
// alongside the already registered sensors with every sensor set.
func (p *Peripheral) AddSensor(id bthome.ObjectID) (*bthome.Sensor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	need := 1 + id.DataSize()
	if left := p.encoder.Capacity(); need > left {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d left", ErrAdvertisementFull, id, need, left)
	}

	s := bthome.NewSensor(id)
	p.encoder.Add(s)
	p.logger.Debug("ble sensor registered", "object", id.String())
	return s, nil
}

// BindSensor adds a BTHome sensor that follows an entity sensor: every
// SetValue on src also updates the BTHome reading.
func (p *Peripheral) BindSensor(src *entity.Sensor, id bthome.ObjectID) (*bthome.Sensor, error) {
	s, err := p.AddSensor(id)
	if err != nil {
		return nil, err
	}
	if v, ok := src.Value(); ok {
		s.SetValue(v)
	}

	p.mu.Lock()
	p.bindings[src] = s
	p.mu.Unlock()
	return s, nil
}

// AddSwitch exposes sw through the control channel. Its index is its
// position among switches added to this peripheral.
func (p *Peripheral) AddSwitch(sw *entity.Switch) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.switchIx[sw]; exists {
		return fmt.Errorf("%w: %q", ErrSwitchExists, sw.ID())
	}
	if len(p.switches) >= MaxSwitches {
		return fmt.Errorf("%w: limit is %d", ErrTooManySwitches, MaxSwitches)
	}

	p.switchIx[sw] = len(p.switches)
	p.switches = append(p.switches, sw)
	p.logger.Debug("ble switch registered", "id", sw.ID(), "index", len(p.switches)-1)
	return nil
}

// Advertise rebuilds the BTHome payload and (re)starts advertising.
//
// The packet counter increases on every call. If the payload cannot be
// encoded the radio keeps its previous payload.
func (p *Peripheral) Advertise() error {
	if !p.running.Load() {
		p.logger.Warn("advertise called before ble started")
		return ErrNotRunning
	}

	id := p.packetID.Add(1)

	payload, err := p.encoder.Encode()
	if err != nil {
		p.logger.Error("encoding advertisement failed", "packet_id", id, "error", err)
		return fmt.Errorf("encoding advertisement: %w", err)
	}
	if err := p.radio.SetAdvertisementPayload(payload); err != nil {
		return fmt.Errorf("setting advertisement: %w", err)
	}
	if err := p.radio.StartAdvertising(); err != nil {
		return fmt.Errorf("starting advertising: %w", err)
	}

	p.logger.Debug("advertised", "packet_id", id, "len", len(payload))
	return nil
}

// Run advertises immediately and then every advertise interval until ctx
// is cancelled. Advertise errors are logged and do not stop the loop.
func (p *Peripheral) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.AdvertiseInterval)
	defer ticker.Stop()

	_ = p.Advertise() //nolint:errcheck // logged by Advertise
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Advertise(); err != nil {
				p.logger.Debug("advertise skipped", "error", err)
			}
		}
	}
}

// PacketID returns the number of Advertise calls so far.
func (p *Peripheral) PacketID() uint32 { return p.packetID.Load() }

// Connected reports whether a central is connected.
func (p *Peripheral) Connected() bool { return p.connected.Load() }

// Running reports whether Begin succeeded.
func (p *Peripheral) Running() bool { return p.running.Load() }

// Sensors returns the BTHome sensors in advertisement order.
func (p *Peripheral) Sensors() []*bthome.Sensor { return p.encoder.Sensors() }

// StatePayload returns the State characteristic value:
// switch count followed by one 0/1 byte per switch.
func (p *Peripheral) StatePayload() []byte {
	p.mu.RLock()
	switches := make([]*entity.Switch, len(p.switches))
	copy(switches, p.switches)
	p.mu.RUnlock()

	buf := make([]byte, 0, len(switches)+1)
	buf = append(buf, byte(len(switches)))
	for _, sw := range switches {
		if sw.State() {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

// OnWrite handles a write to a control characteristic.
//
// Command payloads are [index, state]; shorter payloads and indexes past
// the last switch are ignored.
func (p *Peripheral) OnWrite(id CharacteristicID, value []byte) {
	if id != CommandCharacteristic {
		return
	}
	if len(value) < 2 { //nolint:mnd // index + state
		p.logger.Debug("ble command too short", "len", len(value))
		return
	}

	index := int(value[0])
	on := value[1] != 0

	p.mu.RLock()
	var sw *entity.Switch
	if index < len(p.switches) {
		sw = p.switches[index]
	}
	p.mu.RUnlock()

	if sw == nil {
		p.logger.Debug("ble command for unknown switch index", "index", index)
		return
	}

	p.logger.Info("ble command", "index", index, "id", sw.ID(), "state", on)
	sw.HandleCommand(on)
}

// OnConnect marks the link up and pushes a fresh state snapshot.
func (p *Peripheral) OnConnect() {
	p.connected.Store(true)
	p.logger.Info("ble client connected")
	p.notifyState()
}

// OnDisconnect marks the link down.
func (p *Peripheral) OnDisconnect() {
	p.connected.Store(false)
	p.logger.Info("ble client disconnected")
}

// SensorChanged copies bound entity sensor values into the BTHome sensor.
func (p *Peripheral) SensorChanged(s *entity.Sensor) {
	p.mu.RLock()
	target, ok := p.bindings[s]
	p.mu.RUnlock()
	if !ok {
		return
	}
	if v, has := s.Value(); has {
		target.SetValue(v)
	}
}

// SwitchChanged pushes the state snapshot when one of our switches changed.
func (p *Peripheral) SwitchChanged(sw *entity.Switch) {
	p.mu.RLock()
	_, ours := p.switchIx[sw]
	p.mu.RUnlock()
	if ours {
		p.notifyState()
	}
}

// notifyState refreshes the State value. While a central is connected the
// value is notified; otherwise it is only stored for later reads.
func (p *Peripheral) notifyState() {
	if !p.cfg.Control || !p.running.Load() {
		return
	}

	payload := p.StatePayload()
	if !p.connected.Load() {
		if err := p.radio.WriteCharacteristic(StateCharacteristic, payload); err != nil {
			p.logger.Warn("writing state characteristic failed", "error", err)
		}
		return
	}
	if err := p.radio.NotifyCharacteristic(StateCharacteristic, payload); err != nil {
		p.logger.Warn("notifying state failed", "error", err)
		return
	}
	p.logger.Debug("ble state notified", "switches", len(payload)-1)
}
