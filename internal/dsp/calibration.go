// Package dsp holds the per-channel stream transforms applied to raw samples
// before metering: calibration, DC removal and phase-alignment delay.
package dsp

import vecmath "github.com/cwbudde/algo-vecmath"

// Calibration maps a raw reading to a physical value: (raw - Offset) * Scale.
type Calibration struct {
	Offset float64
	Scale  float64
}

// Apply calibrates a single reading.
func (c Calibration) Apply(raw float64) float64 {
	return (raw - c.Offset) * c.Scale
}

// Invert maps a physical value back to the raw reading that produces it.
// Scale must be non-zero.
func (c Calibration) Invert(value float64) float64 {
	return value/c.Scale + c.Offset
}

// ApplyBlock calibrates src into dst. dst must be at least len(src) long;
// dst and src may be the same slice.
func (c Calibration) ApplyBlock(dst, src []float64) {
	dst = dst[:len(src)]
	if c.Offset != 0 {
		for i, raw := range src {
			dst[i] = raw - c.Offset
		}
		src = dst
	}
	vecmath.ScaleBlock(dst, src, c.Scale)
}
