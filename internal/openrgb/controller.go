package openrgb

import (
	"encoding/binary"

	"codeberg.org/mutker/rgbmond/internal/errors"
)

// DeviceType is the coarse device category reported by the server and used
// for whole-class filtering.
type DeviceType uint32

const (
	DeviceMotherboard DeviceType = iota
	DeviceDRAM
	DeviceGPU
	DeviceCooler
	DeviceLEDStrip

	deviceTypeCount
)

var deviceTypeNames = map[DeviceType]string{
	DeviceMotherboard: "motherboard",
	DeviceDRAM:        "dram",
	DeviceGPU:         "gpu",
	DeviceCooler:      "cooler",
	DeviceLEDStrip:    "ledstrip",
}

func (t DeviceType) String() string {
	if name, ok := deviceTypeNames[t]; ok {
		return name
	}

	return "unknown"
}

// IsValid reports whether t is one of the operable device categories
func (t DeviceType) IsValid() bool {
	return t < deviceTypeCount
}

// Zone is a named LED group within a controller
type Zone struct {
	Index    uint32
	Name     string
	LEDCount uint32
}

// Controller is the server-reported identity of one physical controller.
// Built fresh on every enumeration and never mutated afterwards.
type Controller struct {
	Index    uint32
	Name     string
	Type     DeviceType
	Zones    []Zone
	LEDCount uint32
}

// payloadReader walks a controller-data payload with bounds checking. Any
// out-of-range access latches the error state; callers check Err once at
// the end instead of after every field.
type payloadReader struct {
	data []byte
	pos  int
	bad  bool
}

func (r *payloadReader) u16() uint16 {
	if r.pos+2 > len(r.data) {
		r.bad = true
		return 0
	}

	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2

	return v
}

func (r *payloadReader) u32() uint32 {
	if r.pos+4 > len(r.data) {
		r.bad = true
		return 0
	}

	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4

	return v
}

// str reads a length-prefixed string: u16 length including the trailing
// NUL, then the bytes.
func (r *payloadReader) str() string {
	n := int(r.u16())
	if r.bad || n == 0 || r.pos+n > len(r.data) {
		r.bad = r.bad || r.pos+n > len(r.data)
		return ""
	}

	s := string(r.data[r.pos : r.pos+n-1])
	r.pos += n

	return s
}

func (r *payloadReader) skip(n int) {
	if n < 0 || r.pos+n > len(r.data) {
		r.bad = true
		return
	}

	r.pos += n
}

func (r *payloadReader) Err() error {
	if r.bad {
		return errors.New().WithData(errors.ErrProtocolMalformed, "controller data shorter than declared structure")
	}

	return nil
}

// unpackController decodes a controller-data response payload. Only the
// fields needed for zone-addressed color updates are retained; modes,
// metadata strings and per-LED names are walked and discarded.
func unpackController(index uint32, data []byte) (*Controller, error) {
	r := &payloadReader{data: data}

	r.skip(4) // duplicated data size
	devType := r.u32()
	name := r.str()
	r.str() // vendor
	r.str() // description
	r.str() // version
	r.str() // serial
	r.str() // location

	numModes := int(r.u16())
	r.skip(4) // active mode
	for i := 0; i < numModes && !r.bad; i++ {
		r.str()
		r.skip(36)
		numColors := int(r.u16())
		r.skip(numColors * 4)
	}

	numZones := int(r.u16())
	zones := make([]Zone, 0, numZones)
	for i := 0; i < numZones && !r.bad; i++ {
		zoneName := r.str()
		r.skip(12) // zone type, leds min, leds max
		ledCount := r.u32()
		matrixLen := int(r.u16())
		r.skip(matrixLen)

		zones = append(zones, Zone{
			Index:    uint32(i),
			Name:     zoneName,
			LEDCount: ledCount,
		})
	}

	numLEDs := int(r.u16())
	for i := 0; i < numLEDs && !r.bad; i++ {
		r.str()
		r.skip(4) // led value
	}

	if err := r.Err(); err != nil {
		return nil, err
	}

	return &Controller{
		Index:    index,
		Name:     name,
		Type:     DeviceType(devType),
		Zones:    zones,
		LEDCount: uint32(numLEDs),
	}, nil
}
