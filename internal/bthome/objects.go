package bthome

import "fmt"

// ObjectID identifies the physical quantity of a BTHome record.
type ObjectID byte

// BTHome v2 object ids.
const (
	ObjectPacketID          ObjectID = 0x00
	ObjectBattery           ObjectID = 0x01
	ObjectTemperature       ObjectID = 0x02
	ObjectHumidity          ObjectID = 0x03
	ObjectPressure          ObjectID = 0x04
	ObjectIlluminance       ObjectID = 0x05
	ObjectMassKg            ObjectID = 0x06
	ObjectMassLb            ObjectID = 0x07
	ObjectDewpoint          ObjectID = 0x08
	ObjectCountUint8        ObjectID = 0x09
	ObjectEnergy            ObjectID = 0x0A
	ObjectPower             ObjectID = 0x0B
	ObjectVoltage           ObjectID = 0x0C
	ObjectPM25              ObjectID = 0x0D
	ObjectPM10              ObjectID = 0x0E
	ObjectBinaryGeneric     ObjectID = 0x0F
	ObjectBinaryPower       ObjectID = 0x10
	ObjectBinaryOpening     ObjectID = 0x11
	ObjectCO2               ObjectID = 0x12
	ObjectTVOC              ObjectID = 0x13
	ObjectMoisture          ObjectID = 0x14
	ObjectBatteryLow        ObjectID = 0x15
	ObjectBatteryCharging   ObjectID = 0x16
	ObjectOccupancy         ObjectID = 0x20
	ObjectMotion            ObjectID = 0x21
	ObjectHumidityUint8     ObjectID = 0x2E
	ObjectMoistureUint8     ObjectID = 0x2F
	ObjectButton            ObjectID = 0x3A
	ObjectCountUint16       ObjectID = 0x3D
	ObjectCountUint32       ObjectID = 0x3E
	ObjectRotation          ObjectID = 0x3F
	ObjectDistanceMM        ObjectID = 0x40
	ObjectDistanceM         ObjectID = 0x41
	ObjectDuration          ObjectID = 0x42
	ObjectCurrent           ObjectID = 0x43
	ObjectSpeed             ObjectID = 0x44
	ObjectTemperatureTenth  ObjectID = 0x45
	ObjectUVIndex           ObjectID = 0x46
	ObjectVolumeLiters      ObjectID = 0x47
	ObjectVolumeML          ObjectID = 0x48
	ObjectVolumeFlow        ObjectID = 0x49
	ObjectVoltageTenth      ObjectID = 0x4A
	ObjectGas               ObjectID = 0x4B
	ObjectGasUint32         ObjectID = 0x4C
	ObjectEnergyUint32      ObjectID = 0x4D
	ObjectVolumeUint32      ObjectID = 0x4E
	ObjectWater             ObjectID = 0x4F
)

// objectInfo describes how an object id is carried on the wire.
type objectInfo struct {
	name       string
	size       int
	multiplier float32
	signed     bool
}

var objects = map[ObjectID]objectInfo{
	ObjectPacketID:         {name: "packet_id", size: 2, multiplier: 1},
	ObjectBattery:          {name: "battery", size: 1, multiplier: 1},
	ObjectTemperature:      {name: "temperature", size: 2, multiplier: 100, signed: true},
	ObjectHumidity:         {name: "humidity", size: 2, multiplier: 100},
	ObjectPressure:         {name: "pressure", size: 3, multiplier: 100},
	ObjectIlluminance:      {name: "illuminance", size: 3, multiplier: 100},
	ObjectMassKg:           {name: "mass_kg", size: 2, multiplier: 100},
	ObjectMassLb:           {name: "mass_lb", size: 2, multiplier: 100},
	ObjectDewpoint:         {name: "dewpoint", size: 2, multiplier: 100, signed: true},
	ObjectCountUint8:       {name: "count", size: 1, multiplier: 1},
	ObjectEnergy:           {name: "energy", size: 3, multiplier: 1000},
	ObjectPower:            {name: "power", size: 3, multiplier: 100},
	ObjectVoltage:          {name: "voltage", size: 2, multiplier: 1000},
	ObjectPM25:             {name: "pm25", size: 2, multiplier: 1},
	ObjectPM10:             {name: "pm10", size: 2, multiplier: 1},
	ObjectBinaryGeneric:    {name: "generic_boolean", size: 1, multiplier: 1},
	ObjectBinaryPower:      {name: "power_binary", size: 1, multiplier: 1},
	ObjectBinaryOpening:    {name: "opening", size: 1, multiplier: 1},
	ObjectCO2:              {name: "co2", size: 2, multiplier: 1},
	ObjectTVOC:             {name: "tvoc", size: 2, multiplier: 1},
	ObjectMoisture:         {name: "moisture", size: 2, multiplier: 100},
	ObjectBatteryLow:       {name: "battery_low", size: 1, multiplier: 1},
	ObjectBatteryCharging:  {name: "battery_charging", size: 1, multiplier: 1},
	ObjectOccupancy:        {name: "occupancy", size: 1, multiplier: 1},
	ObjectMotion:           {name: "motion", size: 1, multiplier: 1},
	ObjectHumidityUint8:    {name: "humidity", size: 1, multiplier: 1},
	ObjectMoistureUint8:    {name: "moisture", size: 1, multiplier: 1},
	ObjectButton:           {name: "button", size: 1, multiplier: 1},
	ObjectCountUint16:      {name: "count", size: 2, multiplier: 1},
	ObjectCountUint32:      {name: "count", size: 4, multiplier: 1},
	ObjectRotation:         {name: "rotation", size: 2, multiplier: 10, signed: true},
	ObjectDistanceMM:       {name: "distance_mm", size: 2, multiplier: 1},
	ObjectDistanceM:        {name: "distance_m", size: 2, multiplier: 10},
	ObjectDuration:         {name: "duration", size: 3, multiplier: 1000},
	ObjectCurrent:          {name: "current", size: 2, multiplier: 1000},
	ObjectSpeed:            {name: "speed", size: 2, multiplier: 100},
	ObjectTemperatureTenth: {name: "temperature", size: 2, multiplier: 10, signed: true},
	ObjectUVIndex:          {name: "uv_index", size: 1, multiplier: 1},
	ObjectVolumeLiters:     {name: "volume_l", size: 2, multiplier: 10},
	ObjectVolumeML:         {name: "volume_ml", size: 2, multiplier: 1},
	ObjectVolumeFlow:       {name: "volume_flow_rate", size: 2, multiplier: 1000},
	ObjectVoltageTenth:     {name: "voltage", size: 2, multiplier: 10},
	ObjectGas:              {name: "gas", size: 3, multiplier: 1000},
	ObjectGasUint32:        {name: "gas", size: 4, multiplier: 1000},
	ObjectEnergyUint32:     {name: "energy", size: 4, multiplier: 1000},
	ObjectVolumeUint32:     {name: "volume", size: 4, multiplier: 1000},
	ObjectWater:            {name: "water", size: 4, multiplier: 1000},
}

// Known reports whether the object id is in the supported table.
func (id ObjectID) Known() bool {
	_, ok := objects[id]
	return ok
}

// DataSize returns the number of value bytes that follow the object id.
// Object ids outside the table use 2 bytes.
func (id ObjectID) DataSize() int {
	if info, ok := objects[id]; ok {
		return info.size
	}
	return 2 //nolint:mnd // BTHome default value width
}

// Multiplier returns the factor that turns a reading into its raw integer.
// Object ids outside the table use 1.
func (id ObjectID) Multiplier() float32 {
	if info, ok := objects[id]; ok {
		return info.multiplier
	}
	return 1
}

// Signed reports whether the raw value is two's complement on the wire.
func (id ObjectID) Signed() bool {
	return objects[id].signed
}

// String returns the BTHome property name, or a hex form for unknown ids.
func (id ObjectID) String() string {
	if info, ok := objects[id]; ok {
		return info.name
	}
	return fmt.Sprintf("0x%02X", byte(id))
}

// ButtonEvent is the value of a button object.
type ButtonEvent byte

// Button events.
const (
	ButtonNone       ButtonEvent = 0x00
	ButtonPress      ButtonEvent = 0x01
	ButtonDouble     ButtonEvent = 0x02
	ButtonTriple     ButtonEvent = 0x03
	ButtonLongPress  ButtonEvent = 0x04
	ButtonLongDouble ButtonEvent = 0x05
	ButtonLongTriple ButtonEvent = 0x06
)

var buttonNames = map[ButtonEvent]string{
	ButtonNone:       "none",
	ButtonPress:      "press",
	ButtonDouble:     "double_press",
	ButtonTriple:     "triple_press",
	ButtonLongPress:  "long_press",
	ButtonLongDouble: "long_double_press",
	ButtonLongTriple: "long_triple_press",
}

// String returns the Home Assistant event name.
func (e ButtonEvent) String() string {
	if name, ok := buttonNames[e]; ok {
		return name
	}
	return fmt.Sprintf("button_0x%02X", byte(e))
}

// ParseButtonEvent maps an event name back to its code.
func ParseButtonEvent(name string) (ButtonEvent, bool) {
	for ev, n := range buttonNames {
		if n == name {
			return ev, true
		}
	}
	return ButtonNone, false
}

// ParseObjectName resolves a BTHome property name (as returned by String)
// to an object id. Names shared by several ids resolve to the lowest id.
func ParseObjectName(name string) (ObjectID, bool) {
	found := false
	var best ObjectID
	for id, info := range objects {
		if info.name == name && (!found || id < best) {
			best = id
			found = true
		}
	}
	return best, found
}
