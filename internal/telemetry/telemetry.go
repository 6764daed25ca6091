// Package telemetry forwards entity changes to a time-series writer.
package telemetry

import "github.com/nerrad567/seeed-ha-core/internal/entity"

// Writer records one entity state sample.
// influxdb.Client satisfies it.
type Writer interface {
	WriteEntityState(deviceID, entityID, kind string, value float64)
}

// Recorder is an entity.Listener that writes every change to a Writer.
type Recorder struct {
	writer   Writer
	deviceID string
}

// NewRecorder creates a recorder tagging samples with deviceID.
func NewRecorder(writer Writer, deviceID string) *Recorder {
	return &Recorder{writer: writer, deviceID: deviceID}
}

// SensorChanged writes the sensor reading.
func (r *Recorder) SensorChanged(s *entity.Sensor) {
	v, ok := s.Value()
	if !ok {
		return
	}
	r.writer.WriteEntityState(r.deviceID, s.ID(), string(entity.KindSensor), v)
}

// SwitchChanged writes the switch state as 1 or 0.
func (r *Recorder) SwitchChanged(sw *entity.Switch) {
	var v float64
	if sw.State() {
		v = 1
	}
	r.writer.WriteEntityState(r.deviceID, sw.ID(), string(entity.KindSwitch), v)
}
