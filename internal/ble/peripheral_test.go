package ble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/seeed-ha-core/internal/bthome"
	"github.com/nerrad567/seeed-ha-core/internal/entity"
)

// fakeRadio records every call made by a Peripheral.
type fakeRadio struct {
	mu          sync.Mutex
	enableErrs  []error
	enables     int
	cfg         RadioConfig
	events      EventHandler
	payloads    [][]byte
	starts      int
	writes      [][]byte
	notifies    [][]byte
	setPayloadE error
}

func (f *fakeRadio) Enable(cfg RadioConfig, events EventHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enables++
	if len(f.enableErrs) > 0 {
		err := f.enableErrs[0]
		f.enableErrs = f.enableErrs[1:]
		return err
	}
	f.cfg = cfg
	f.events = events
	return nil
}

func (f *fakeRadio) SetAdvertisementPayload(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setPayloadE != nil {
		return f.setPayloadE
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeRadio) StartAdvertising() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return nil
}

func (f *fakeRadio) WriteCharacteristic(_ CharacteristicID, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, value)
	return nil
}

func (f *fakeRadio) NotifyCharacteristic(_ CharacteristicID, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifies = append(f.notifies, value)
	return nil
}

func startedPeripheral(t *testing.T, control bool) (*Peripheral, *fakeRadio, *entity.Registry) {
	t.Helper()
	radio := &fakeRadio{}
	p := New(radio, Config{Name: "Test", Control: control})
	require.NoError(t, p.Begin(context.Background()))

	reg := entity.NewRegistry()
	reg.AddListener(p)
	return p, radio, reg
}

func TestBegin_RegistersHandler(t *testing.T) {
	p, radio, _ := startedPeripheral(t, true)

	assert.True(t, p.Running())
	assert.Same(t, p, radio.events)
	assert.Equal(t, "Test", radio.cfg.LocalName)
	assert.True(t, radio.cfg.Control)
	assert.Equal(t, DefaultAdvertiseInterval, radio.cfg.Interval)
}

func TestBegin_RetriesEnable(t *testing.T) {
	radio := &fakeRadio{enableErrs: []error{errors.New("busy")}}
	p := New(radio, Config{EnableRetries: 2})

	require.NoError(t, p.Begin(context.Background()))
	assert.Equal(t, 2, radio.enables)
}

func TestBegin_GivesUp(t *testing.T) {
	radio := &fakeRadio{enableErrs: []error{errors.New("no adapter"), errors.New("no adapter")}}
	p := New(radio, Config{})

	err := p.Begin(context.Background())
	assert.Error(t, err)
	assert.False(t, p.Running())
	assert.Equal(t, 1, radio.enables)
}

func TestAdvertise_NotRunning(t *testing.T) {
	p := New(&fakeRadio{}, Config{})
	assert.ErrorIs(t, p.Advertise(), ErrNotRunning)
}

func TestAdvertise_PayloadAndCounter(t *testing.T) {
	p, radio, _ := startedPeripheral(t, false)
	temp, err := p.AddSensor(bthome.ObjectTemperature)
	require.NoError(t, err)
	temp.SetValue(21.37)

	require.NoError(t, p.Advertise())
	require.NoError(t, p.Advertise())

	assert.Equal(t, uint32(2), p.PacketID())
	require.Len(t, radio.payloads, 2)
	assert.Equal(t, radio.payloads[0], radio.payloads[1], "counter is not part of the payload")
	assert.Equal(t, []byte{0x02, 0x59, 0x08}, radio.payloads[0][8:])
	assert.Equal(t, 2, radio.starts)
}

func TestAddSensor_RejectsOverflow(t *testing.T) {
	p, _, _ := startedPeripheral(t, false)

	for i := 0; i < 7; i++ {
		_, err := p.AddSensor(bthome.ObjectTemperature)
		require.NoError(t, err, "sensor %d", i)
	}
	_, err := p.AddSensor(bthome.ObjectBattery)
	assert.NoError(t, err, "a 2-byte record still fits")

	_, err = p.AddSensor(bthome.ObjectBattery)
	assert.ErrorIs(t, err, ErrAdvertisementFull)
	assert.Len(t, p.Sensors(), 8)
}

func TestAdvertise_KeepsPreviousPayloadOnError(t *testing.T) {
	p, radio, _ := startedPeripheral(t, false)
	radio.setPayloadE = errors.New("radio busy")

	err := p.Advertise()
	assert.Error(t, err)
	assert.Zero(t, radio.starts)
	assert.Equal(t, uint32(1), p.PacketID())
}

func TestAddSwitch_Limit(t *testing.T) {
	p, _, reg := startedPeripheral(t, true)

	for i := 0; i < MaxSwitches; i++ {
		sw, err := reg.AddSwitch(fmt.Sprintf("sw%d", i), "S")
		require.NoError(t, err)
		require.NoError(t, p.AddSwitch(sw))
	}

	extra, err := reg.AddSwitch("one-too-many", "S")
	require.NoError(t, err)
	assert.ErrorIs(t, p.AddSwitch(extra), ErrTooManySwitches)

	payload := p.StatePayload()
	assert.Len(t, payload, MaxSwitches+1)
	assert.Equal(t, byte(MaxSwitches), payload[0])
}

func TestAddSwitch_Duplicate(t *testing.T) {
	p, _, reg := startedPeripheral(t, true)
	sw, _ := reg.AddSwitch("led", "LED")

	require.NoError(t, p.AddSwitch(sw))
	assert.ErrorIs(t, p.AddSwitch(sw), ErrSwitchExists)
}

func TestOnWrite_Command(t *testing.T) {
	p, _, reg := startedPeripheral(t, true)
	var handled []bool
	a, _ := reg.AddSwitch("a", "A")
	b, _ := reg.AddSwitch("b", "B", entity.WithHandler(entity.StateHandlerFunc(func(on bool) {
		handled = append(handled, on)
	})))
	require.NoError(t, p.AddSwitch(a))
	require.NoError(t, p.AddSwitch(b))

	p.OnWrite(CommandCharacteristic, []byte{1, 0x7F})

	assert.False(t, a.State())
	assert.True(t, b.State())
	assert.Equal(t, []bool{true}, handled)
}

func TestOnWrite_Ignored(t *testing.T) {
	p, radio, reg := startedPeripheral(t, true)
	sw, _ := reg.AddSwitch("a", "A")
	require.NoError(t, p.AddSwitch(sw))
	p.OnConnect()
	radio.notifies = nil

	p.OnWrite(CommandCharacteristic, []byte{0})
	p.OnWrite(CommandCharacteristic, nil)
	p.OnWrite(CommandCharacteristic, []byte{5, 1})
	p.OnWrite(StateCharacteristic, []byte{0, 1})

	assert.False(t, sw.State())
	assert.Empty(t, radio.notifies)
}

func TestStateNotify_OnConnectAndChanges(t *testing.T) {
	p, radio, reg := startedPeripheral(t, true)
	a, _ := reg.AddSwitch("a", "A")
	b, _ := reg.AddSwitch("b", "B")
	require.NoError(t, p.AddSwitch(a))
	require.NoError(t, p.AddSwitch(b))

	p.OnConnect()
	require.Len(t, radio.notifies, 1)
	assert.Equal(t, []byte{2, 0, 0}, radio.notifies[0])

	b.SetState(true)
	b.SetState(true)
	require.Len(t, radio.notifies, 2, "unchanged state is not notified")
	assert.Equal(t, []byte{2, 0, 1}, radio.notifies[1])

	// A command always echoes, even without a change.
	p.OnWrite(CommandCharacteristic, []byte{1, 1})
	require.Len(t, radio.notifies, 3)
	assert.Equal(t, []byte{2, 0, 1}, radio.notifies[2])
}

func TestStateNotify_SuppressedWhileDisconnected(t *testing.T) {
	p, radio, reg := startedPeripheral(t, true)
	sw, _ := reg.AddSwitch("a", "A")
	require.NoError(t, p.AddSwitch(sw))

	p.OnConnect()
	p.OnDisconnect()
	radio.notifies = nil

	sw.SetState(true)

	assert.Empty(t, radio.notifies)
	require.NotEmpty(t, radio.writes)
	assert.Equal(t, []byte{1, 1}, radio.writes[len(radio.writes)-1])
	assert.False(t, p.Connected())
}

func TestStateNotify_ForeignSwitchIgnored(t *testing.T) {
	p, radio, reg := startedPeripheral(t, true)
	other, _ := reg.AddSwitch("wifi-only", "W")
	p.OnConnect()
	radio.notifies = nil

	other.SetState(true)

	assert.Empty(t, radio.notifies)
}

func TestStateNotify_ControlDisabled(t *testing.T) {
	p, radio, reg := startedPeripheral(t, false)
	sw, _ := reg.AddSwitch("a", "A")
	require.NoError(t, p.AddSwitch(sw))

	p.OnConnect()
	sw.SetState(true)

	assert.Empty(t, radio.notifies)
	assert.Empty(t, radio.writes)
}

func TestBindSensor_FollowsEntity(t *testing.T) {
	p, _, reg := startedPeripheral(t, false)
	temp, _ := reg.AddSensor("temperature", "Temperature")
	temp.SetValue(19.5)

	bt, err := p.BindSensor(temp, bthome.ObjectTemperature)
	require.NoError(t, err)
	assert.Equal(t, int32(1950), bt.Reading().Raw, "initial value copied")

	temp.SetValue(-2.25)
	assert.Equal(t, int32(-225), bt.Reading().Raw)
}

func TestRun_StopsOnCancel(t *testing.T) {
	p, radio, _ := startedPeripheral(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	radio.mu.Lock()
	defer radio.mu.Unlock()
	assert.GreaterOrEqual(t, radio.starts, 1)
}
