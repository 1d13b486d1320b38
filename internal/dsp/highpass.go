package dsp

import "math"

// HighPassFilter is a single-pole IIR high-pass filter used to strip DC bias
// and slow drift from a channel. It keeps its state for as long as it lives,
// across any number of buffers; one instance belongs to one channel.
type HighPassFilter struct {
	alpha          float64
	previousSample float64
	previousResult float64
	initialized    bool
}

// NewHighPassFilter returns a filter for sample period dt (seconds) and
// cutoff frequency f (Hz).
func NewHighPassFilter(dt, f float64) *HighPassFilter {
	return &HighPassFilter{
		alpha: 1 / (1 + 2*math.Pi*f*dt),
	}
}

// Alpha returns the filter coefficient.
func (h *HighPassFilter) Alpha() float64 {
	return h.alpha
}

// Apply filters one sample. The first sample a filter ever sees is returned
// unchanged and seeds the state.
func (h *HighPassFilter) Apply(sample float64) float64 {
	if !h.initialized {
		h.previousSample = sample
		h.previousResult = sample
		h.initialized = true
		return sample
	}

	result := h.alpha * (h.previousResult + sample - h.previousSample)
	h.previousResult = result
	h.previousSample = sample
	return result
}

// Process filters src into dst strictly left to right. dst may alias src.
func (h *HighPassFilter) Process(dst, src []float64) {
	for i, v := range src {
		dst[i] = h.Apply(v)
	}
}
