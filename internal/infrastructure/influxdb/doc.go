// Package influxdb writes entity state changes to InfluxDB 2.x.
//
// Every sensor reading and switch change becomes one "entity_state" point
// tagged with device_id, entity_id and kind, carrying a single "value"
// field. Writes are batched by the client library and never block the
// caller; batch failures reach the callback set with SetOnError.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteEntityState("AABBCCDDEEFF", "temperature", "sensor", 21.5)
package influxdb
