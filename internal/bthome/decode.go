package bthome

import (
	"encoding/binary"
	"fmt"
)

// ADStructure is one length-type-value element of advertising data.
type ADStructure struct {
	Type byte
	Data []byte
}

// Measurement is one decoded BTHome record.
type Measurement struct {
	ObjectID ObjectID
	Raw      int32
	Value    float64
}

// Packet is a decoded BTHome service data payload.
type Packet struct {
	DeviceInfo   byte
	Measurements []Measurement
}

// ParseAD splits raw advertising data into its AD structures.
//
// A zero length byte ends the data (remaining bytes are padding).
//
// Returns:
//   - []ADStructure: Structures in wire order
//   - error: ErrMalformedAD if a length runs past the end of payload
func ParseAD(payload []byte) ([]ADStructure, error) {
	var out []ADStructure
	for i := 0; i < len(payload); {
		n := int(payload[i])
		if n == 0 {
			break
		}
		if i+1+n > len(payload) {
			return nil, fmt.Errorf("%w: structure at offset %d claims %d bytes, %d left", ErrMalformedAD, i, n, len(payload)-i-1)
		}
		out = append(out, ADStructure{
			Type: payload[i+1],
			Data: payload[i+2 : i+1+n],
		})
		i += 1 + n
	}
	return out, nil
}

// ServiceData returns the BTHome service data (everything after the UUID)
// from raw advertising data.
func ServiceData(payload []byte) ([]byte, error) {
	structures, err := ParseAD(payload)
	if err != nil {
		return nil, err
	}
	for _, s := range structures {
		if s.Type != adTypeServiceData || len(s.Data) < 2 {
			continue
		}
		if binary.LittleEndian.Uint16(s.Data[:2]) == ServiceUUID {
			return s.Data[2:], nil
		}
	}
	return nil, ErrNotBTHome
}

// DecodeAdvertisement decodes the BTHome records in raw advertising data.
func DecodeAdvertisement(payload []byte) (Packet, error) {
	data, err := ServiceData(payload)
	if err != nil {
		return Packet{}, err
	}
	return Decode(data)
}

// Decode parses BTHome service data: the device info byte followed by
// records. Raw values are sign extended for signed objects and divided by
// the object multiplier.
func Decode(data []byte) (Packet, error) {
	if len(data) < 1 {
		return Packet{}, fmt.Errorf("%w: missing device info byte", ErrTruncated)
	}
	info := data[0]
	// Bit 0 encryption, bits 5-7 version.
	if info&0x01 != 0 || info>>5 != 2 { //nolint:mnd // BTHome device info bit layout
		return Packet{}, fmt.Errorf("%w: device info 0x%02X", ErrUnsupportedVersion, info)
	}

	pkt := Packet{DeviceInfo: info}
	for i := 1; i < len(data); {
		id := ObjectID(data[i])
		if !id.Known() {
			return pkt, fmt.Errorf("%w: 0x%02X at offset %d", ErrUnknownObject, byte(id), i)
		}
		size := id.DataSize()
		if i+1+size > len(data) {
			return pkt, fmt.Errorf("%w: %s needs %d bytes at offset %d", ErrTruncated, id, size, i+1)
		}
		raw := readIntLE(data[i+1:i+1+size], id.Signed())
		pkt.Measurements = append(pkt.Measurements, Measurement{
			ObjectID: id,
			Raw:      raw,
			Value:    ScaleRaw(id, raw),
		})
		i += 1 + size
	}
	return pkt, nil
}

// readIntLE reads a little-endian integer of 1 to 4 bytes.
func readIntLE(b []byte, signed bool) int32 {
	var v uint32
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i]) //nolint:mnd // byte shift
	}
	if signed && len(b) < 4 { //nolint:mnd // full width needs no extension
		shift := uint(32 - 8*len(b)) //nolint:mnd // bits above the value
		return int32(v<<shift) >> shift //nolint:gosec // sign extension
	}
	return int32(v) //nolint:gosec // raw wire value
}
