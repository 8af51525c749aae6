package colormap

import (
	"fmt"
	"math"
	"strconv"

	"codeberg.org/mutker/rgbmond/internal/errors"
)

// Gradient endpoints: dark violet at the low end of the arc, pure red at
// full load. Saturation is always 1; value ramps up with the hue sweep.
const (
	hueStart   = 300.0
	hueEnd     = 0.0
	valueStart = 0.6
	valueEnd   = 1.0
)

// Color is an immutable RGB triple
type Color struct {
	R, G, B uint8
}

// Black is the all-off color pushed on suspend
var Black = Color{}

func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHex parses an RRGGBB hex string into a Color
func ParseHex(s string) (Color, error) {
	errFactory := errors.New()
	if len(s) != 6 {
		return Color{}, errFactory.WithData(errors.ErrInvalidColorSpec, s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, errFactory.Wrap(errors.ErrInvalidColorSpec, err)
	}

	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// Spec defines the load→color mapping: below Threshold the Default color
// applies verbatim, above it the violet→red gradient takes over.
type Spec struct {
	Threshold float64
	Default   Color
}

func (s Spec) Validate() error {
	errFactory := errors.New()
	if s.Threshold < 0 || s.Threshold > 1 {
		return errFactory.WithData(errors.ErrInvalidColorSpec, s.Threshold)
	}

	return nil
}

// Compute maps a load fraction in [0,1] to a color. Pure and deterministic;
// callers clamp out-of-range input.
func Compute(load float64, spec Spec) Color {
	if load < spec.Threshold {
		return spec.Default
	}

	return gradient(position(load, spec.Threshold))
}

// position maps [threshold,1] linearly onto [0,1]
func position(load, threshold float64) float64 {
	span := 1 - threshold
	if span <= 0 {
		return 1
	}

	t := (load - threshold) / span
	if t > 1 {
		return 1
	}

	return t
}

func gradient(t float64) Color {
	hue := hueStart + (hueEnd-hueStart)*t
	value := valueStart + (valueEnd-valueStart)*t
	r, g, b := hsvToRGB(hue, 1, value)

	return Color{R: r, G: g, B: b}
}

// hsvToRGB converts HSV (hue in degrees, s and v in [0,1]) to RGB
func hsvToRGB(h, s, v float64) (r, g, b uint8) {
	if s == 0 {
		val := uint8(v * 255)
		return val, val, val
	}

	h = math.Mod(h, 360)
	h /= 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var rf, gf, bf float64
	switch int(i) {
	case 0:
		rf, gf, bf = v, t, p
	case 1:
		rf, gf, bf = q, v, p
	case 2:
		rf, gf, bf = p, v, t
	case 3:
		rf, gf, bf = p, q, v
	case 4:
		rf, gf, bf = t, p, v
	default:
		rf, gf, bf = v, p, q
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}
