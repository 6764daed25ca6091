package ble

import (
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/nerrad567/seeed-ha-core/internal/bthome"
)

// TinyGoRadio implements Radio on top of tinygo.org/x/bluetooth.
//
// The library builds the Flags structure itself, so SetAdvertisementPayload
// extracts the BTHome service data from the raw payload and hands it over
// as a ServiceDataElement.
type TinyGoRadio struct {
	adapter *bluetooth.Adapter

	mu          sync.Mutex
	enabled     bool
	advertising bool
	cfg         RadioConfig
	events      EventHandler
	adv         *bluetooth.Advertisement
	opts        bluetooth.AdvertisementOptions
	commandChar bluetooth.Characteristic
	stateChar   bluetooth.Characteristic
}

// NewTinyGoRadio wraps adapter. A nil adapter uses bluetooth.DefaultAdapter.
func NewTinyGoRadio(adapter *bluetooth.Adapter) *TinyGoRadio {
	if adapter == nil {
		adapter = bluetooth.DefaultAdapter
	}
	return &TinyGoRadio{adapter: adapter}
}

// Enable implements Radio.
func (r *TinyGoRadio) Enable(cfg RadioConfig, events EventHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enabled {
		r.events = events
		return nil
	}

	r.cfg = cfg
	r.events = events

	// Must be set before Enable for peripherals.
	r.adapter.SetConnectHandler(func(_ bluetooth.Device, connected bool) {
		r.mu.Lock()
		h := r.events
		r.mu.Unlock()
		if h == nil {
			return
		}
		if connected {
			h.OnConnect()
		} else {
			h.OnDisconnect()
		}
	})

	if err := r.adapter.Enable(); err != nil {
		return fmt.Errorf("enabling adapter: %w", err)
	}

	advType := bluetooth.AdvertisingTypeNonConnInd
	if cfg.Control {
		if err := r.addControlService(); err != nil {
			return err
		}
		advType = bluetooth.AdvertisingTypeInd
	}

	r.adv = r.adapter.DefaultAdvertisement()
	r.opts = bluetooth.AdvertisementOptions{
		AdvertisementType: advType,
		LocalName:         cfg.LocalName,
	}
	if cfg.Interval > 0 {
		r.opts.Interval = bluetooth.NewDuration(cfg.Interval)
	}

	r.enabled = true
	return nil
}

func (r *TinyGoRadio) addControlService() error {
	serviceUUID, err := bluetooth.ParseUUID(ControlServiceUUID)
	if err != nil {
		return fmt.Errorf("parsing service uuid: %w", err)
	}
	commandUUID, err := bluetooth.ParseUUID(CommandCharUUID)
	if err != nil {
		return fmt.Errorf("parsing command uuid: %w", err)
	}
	stateUUID, err := bluetooth.ParseUUID(StateCharUUID)
	if err != nil {
		return fmt.Errorf("parsing state uuid: %w", err)
	}

	err = r.adapter.AddService(&bluetooth.Service{
		UUID: serviceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &r.commandChar,
				UUID:   commandUUID,
				Flags:  bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
					r.dispatchWrite(CommandCharacteristic, value)
				},
			},
			{
				Handle: &r.stateChar,
				UUID:   stateUUID,
				Value:  []byte{0},
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("adding control service: %w", err)
	}
	return nil
}

// dispatchWrite forwards a write to the handler, shielding the radio stack
// from handler panics.
func (r *TinyGoRadio) dispatchWrite(id CharacteristicID, value []byte) {
	r.mu.Lock()
	h := r.events
	r.mu.Unlock()
	if h == nil {
		return
	}

	defer func() {
		recover() //nolint:errcheck // keep the BLE stack alive
	}()
	data := make([]byte, len(value))
	copy(data, value)
	h.OnWrite(id, data)
}

// SetAdvertisementPayload implements Radio.
func (r *TinyGoRadio) SetAdvertisementPayload(payload []byte) error {
	serviceData, err := bthome.ServiceData(payload)
	if err != nil {
		return fmt.Errorf("extracting service data: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return ErrRadioDisabled
	}

	r.opts.ServiceData = []bluetooth.ServiceDataElement{{
		UUID: bluetooth.New16BitUUID(bthome.ServiceUUID),
		Data: serviceData,
	}}

	if r.advertising {
		if err := r.adv.Stop(); err != nil {
			return fmt.Errorf("stopping advertisement: %w", err)
		}
		r.advertising = false
	}
	if err := r.adv.Configure(r.opts); err != nil {
		return fmt.Errorf("configuring advertisement: %w", err)
	}
	return nil
}

// StartAdvertising implements Radio.
func (r *TinyGoRadio) StartAdvertising() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return ErrRadioDisabled
	}
	if r.advertising {
		return nil
	}
	if err := r.adv.Start(); err != nil {
		return fmt.Errorf("starting advertisement: %w", err)
	}
	r.advertising = true
	return nil
}

// WriteCharacteristic implements Radio.
func (r *TinyGoRadio) WriteCharacteristic(id CharacteristicID, value []byte) error {
	return r.write(id, value)
}

// NotifyCharacteristic implements Radio. The library notifies subscribed
// centrals as part of every value write.
func (r *TinyGoRadio) NotifyCharacteristic(id CharacteristicID, value []byte) error {
	return r.write(id, value)
}

func (r *TinyGoRadio) write(id CharacteristicID, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled || !r.cfg.Control {
		return ErrRadioDisabled
	}

	var ch *bluetooth.Characteristic
	switch id {
	case StateCharacteristic:
		ch = &r.stateChar
	case CommandCharacteristic:
		ch = &r.commandChar
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCharacteristic, id)
	}

	if _, err := ch.Write(value); err != nil {
		return fmt.Errorf("writing %s characteristic: %w", id, err)
	}
	return nil
}
