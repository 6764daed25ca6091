package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementEntityState is the measurement every entity change is written to.
const MeasurementEntityState = "entity_state"

// EntityPoint builds the point for one entity state change. Switches are
// written as 0 or 1.
func EntityPoint(deviceID, entityID, kind string, value float64, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementEntityState,
		map[string]string{
			"device_id": deviceID,
			"entity_id": entityID,
			"kind":      kind,
		},
		map[string]interface{}{"value": value},
		ts,
	)
}

// WriteEntityState queues one entity state change stamped with the current
// time. It is dropped after Close.
func (c *Client) WriteEntityState(deviceID, entityID, kind string, value float64) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(EntityPoint(deviceID, entityID, kind, value, time.Now()))
}
