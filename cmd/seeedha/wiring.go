package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/nerrad567/seeed-ha-core/internal/ble"
	"github.com/nerrad567/seeed-ha-core/internal/bthome"
	"github.com/nerrad567/seeed-ha-core/internal/dispatch"
	"github.com/nerrad567/seeed-ha-core/internal/entity"
	"github.com/nerrad567/seeed-ha-core/internal/gpio"
	"github.com/nerrad567/seeed-ha-core/internal/hamqtt"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/config"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/logging"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/mqtt"
)

const manufacturer = "Seeed Studio"

// sensorBinding pairs a registered sensor with its BTHome object.
type sensorBinding struct {
	sensor *entity.Sensor
	object string
}

// registerEntities adds the configured sensors and switches to the
// registry in file order. It returns the sensors that ask to be mirrored
// into the BLE advertisement.
func registerEntities(reg *entity.Registry, cfg config.EntitiesConfig) ([]sensorBinding, error) {
	var bindings []sensorBinding

	for _, sc := range cfg.Sensors {
		opts := []entity.SensorOption{
			entity.WithDeviceClass(sc.DeviceClass),
			entity.WithUnit(sc.Unit),
			entity.WithIcon(sc.Icon),
		}
		if sc.StateClass != "" {
			opts = append(opts, entity.WithStateClass(entity.StateClass(sc.StateClass)))
		}
		if sc.Precision != nil {
			opts = append(opts, entity.WithPrecision(*sc.Precision))
		}

		sensor, err := reg.AddSensor(sc.ID, sc.Name, opts...)
		if err != nil {
			return nil, fmt.Errorf("sensor %q: %w", sc.ID, err)
		}
		if sc.BTHome != "" {
			bindings = append(bindings, sensorBinding{sensor: sensor, object: sc.BTHome})
		}
	}

	for _, swc := range cfg.Switches {
		_, err := reg.AddSwitch(swc.ID, swc.Name,
			entity.WithSwitchIcon(swc.Icon),
			entity.WithInitialState(swc.Initial),
		)
		if err != nil {
			return nil, fmt.Errorf("switch %q: %w", swc.ID, err)
		}
	}

	return bindings, nil
}

// startGPIO opens the chip and drives an output line for every mapped switch.
func startGPIO(cfg config.GPIOConfig, reg *entity.Registry, log *logging.Logger) (*gpio.Controller, error) {
	ctrl, err := gpio.Open(cfg.Chip)
	if err != nil {
		return nil, err
	}
	ctrl.SetLogger(log)

	ids := make([]string, 0, len(cfg.Switches))
	for id := range cfg.Switches {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		sw, ok := reg.Switch(id)
		if !ok {
			ctrl.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("gpio switch %q: %w", id, dispatch.ErrSwitchNotFound)
		}
		out, err := ctrl.Output(id, cfg.Switches[id], sw.State())
		if err != nil {
			ctrl.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("gpio switch %q: %w", id, err)
		}
		sw.SetHandler(out)
		log.Info("gpio output bound", "switch", id, "chip", cfg.Chip, "offset", cfg.Switches[id])
	}

	return ctrl, nil
}

// startResetButton watches the reset line on its own chip handle and calls
// onReset once the button is held for hold.
func startResetButton(ctx context.Context, cfg config.GPIOConfig, hold time.Duration, onReset func(), log *logging.Logger) error {
	ctrl, err := gpio.Open(cfg.Chip)
	if err != nil {
		return err
	}
	ctrl.SetLogger(log)

	button, err := ctrl.Button(cfg.ResetLine, hold, onReset)
	if err != nil {
		ctrl.Close() //nolint:errcheck // already failing
		return err
	}

	go func() {
		button.Run(ctx)
		if closeErr := ctrl.Close(); closeErr != nil {
			log.Error("error releasing reset button", "error", closeErr)
		}
	}()
	log.Info("reset button armed", "offset", cfg.ResetLine, "hold", hold)
	return nil
}

// startMQTT connects to the broker, retrying with exponential backoff, and
// mirrors the registry into Home Assistant's MQTT discovery.
func startMQTT(
	ctx context.Context,
	cfg *config.Config,
	deviceID, ver string,
	reg *entity.Registry,
	commands *dispatch.Dispatcher,
	log *logging.Logger,
) (*mqtt.Client, error) {
	attempts := cfg.MQTT.Reconnect.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(attempts-1)),
		ctx,
	)

	var client *mqtt.Client
	err := backoff.Retry(func() error {
		c, err := mqtt.Connect(cfg.MQTT, deviceID)
		if err != nil {
			log.Warn("MQTT connect failed", "broker", cfg.MQTT.Broker.Host, "error", err)
			return err
		}
		client = c
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	client.SetLogger(log)

	mirror := hamqtt.New(client, reg, commands, hamqtt.Device{
		ID:           deviceID,
		Name:         cfg.Device.Name,
		Model:        cfg.Device.Model,
		Version:      ver,
		Manufacturer: manufacturer,
	}, byte(cfg.MQTT.QoS))
	mirror.SetLogger(log)

	// Discovery configs are retained, but a broker restart loses them.
	client.SetOnConnect(func() {
		if err := mirror.Announce(); err != nil {
			log.Warn("MQTT discovery announce failed", "error", err)
		}
	})
	if err := mirror.Start(); err != nil {
		client.Close() //nolint:errcheck // already failing
		return nil, err
	}
	reg.AddListener(mirror)

	log.Info("MQTT discovery enabled",
		"broker", cfg.MQTT.Broker.Host,
		"prefix", client.Topics().Discovery,
	)
	return client, nil
}

// startBLE brings up the BTHome advertisement and, when enabled, the GATT
// control channel for every registered switch.
func startBLE(
	ctx context.Context,
	cfg *config.Config,
	reg *entity.Registry,
	bindings []sensorBinding,
	log *logging.Logger,
) (*ble.Peripheral, error) {
	name := cfg.BLE.Name
	if name == "" {
		name = cfg.Device.Name
	}
	retries := cfg.BLE.EnableRetries
	if retries < 0 {
		retries = 0
	}

	p := ble.New(ble.NewTinyGoRadio(nil), ble.Config{
		Name:              name,
		Control:           cfg.BLE.Control,
		AdvertiseInterval: cfg.GetAdvertiseInterval(),
		EnableRetries:     uint64(retries),
	})
	p.SetLogger(log)

	if err := addBLEObjects(p, reg, cfg.Entities.BTHome, bindings, cfg.BLE.Control); err != nil {
		return nil, err
	}
	reg.AddListener(p)

	if err := p.Begin(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// addBLEObjects registers the advertised sensors and control switches.
// An unknown object name aborts with bthome.ErrUnknownObject.
func addBLEObjects(
	p *ble.Peripheral,
	reg *entity.Registry,
	static []config.BTHomeConfig,
	bindings []sensorBinding,
	control bool,
) error {
	for _, b := range bindings {
		objID, ok := bthome.ParseObjectName(b.object)
		if !ok {
			return fmt.Errorf("sensor %q: %w: %q", b.sensor.ID(), bthome.ErrUnknownObject, b.object)
		}
		if _, err := p.BindSensor(b.sensor, objID); err != nil {
			return fmt.Errorf("sensor %q: %w", b.sensor.ID(), err)
		}
	}

	for i, bc := range static {
		objID, ok := bthome.ParseObjectName(bc.Object)
		if !ok {
			return fmt.Errorf("bthome[%d]: %w: %q", i, bthome.ErrUnknownObject, bc.Object)
		}
		s, err := p.AddSensor(objID)
		if err != nil {
			return fmt.Errorf("bthome[%d]: %w", i, err)
		}
		if bc.Value != nil {
			s.SetValue(*bc.Value)
		}
	}

	if !control {
		return nil
	}
	for _, sw := range reg.Switches() {
		if err := p.AddSwitch(sw); err != nil {
			if errors.Is(err, ble.ErrTooManySwitches) {
				return err
			}
			return fmt.Errorf("switch %q: %w", sw.ID(), err)
		}
	}
	return nil
}
