// Package bthome encodes and decodes BTHome v2 BLE advertisements.
//
// BTHome v2 carries typed sensor readings in the Service Data AD structure
// of a legacy (31 byte) advertisement:
//
//	[02][01][06]                     Flags: LE General Discoverable, BR/EDR not supported
//	[len+1][16][D2][FC][40]          Service Data, UUID 0xFCD2 (LE), device info byte
//	{[objectID][value LE, N bytes]}* one record per sensor that has a value
//
// Each object id fixes both the wire size of its value (1 to 4 bytes) and
// the fixed-point multiplier applied to the float reading. Encoding always
// goes through a bounds-checked Writer, so an oversized sensor set yields
// ErrPayloadTooLarge instead of a corrupt packet.
//
// See https://bthome.io/format/ for the object table.
package bthome
