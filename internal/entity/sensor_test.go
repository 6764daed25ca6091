package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensor_SetValueAlwaysNotifies(t *testing.T) {
	reg, rec := newRecordedRegistry(t)
	s, err := reg.AddSensor("temperature", "Temperature")
	require.NoError(t, err)

	s.SetValue(21.5)
	s.SetValue(21.5)
	s.SetValue(22)

	assert.Equal(t, []string{"temperature", "temperature", "temperature"}, rec.sensors)
}

func TestSensor_HasValueDistinguishesZero(t *testing.T) {
	reg := NewRegistry()
	s, _ := reg.AddSensor("count", "Count")

	v, ok := s.Value()
	assert.False(t, ok)
	assert.Zero(t, v)

	s.SetValue(0)

	v, ok = s.Value()
	assert.True(t, ok)
	assert.Zero(t, v)
	assert.True(t, s.Snapshot().HasValue)
}

func TestSensor_ListenerSeesNewValue(t *testing.T) {
	reg := NewRegistry()
	var seen float64
	reg.AddListener(listenerFuncs{
		sensor: func(s *Sensor) { seen, _ = s.Value() },
	})
	s, _ := reg.AddSensor("p", "Pressure")

	s.SetValue(1013.2)

	assert.InDelta(t, 1013.2, seen, 1e-9)
}

// listenerFuncs adapts optional funcs to Listener.
type listenerFuncs struct {
	sensor func(*Sensor)
	sw     func(*Switch)
}

func (l listenerFuncs) SensorChanged(s *Sensor) {
	if l.sensor != nil {
		l.sensor(s)
	}
}

func (l listenerFuncs) SwitchChanged(sw *Switch) {
	if l.sw != nil {
		l.sw(sw)
	}
}
