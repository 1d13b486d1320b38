// Package meter contains buffer-at-a-time estimators over conditioned
// sample sequences. Every estimator reads its input once, left to right,
// and returns 0 for an empty sequence.
package meter

import (
	timestats "github.com/cwbudde/algo-dsp/stats/time"
	vecmath "github.com/cwbudde/algo-vecmath"
)

// RMS returns sqrt(mean(x²)).
func RMS(samples []float64) float64 {
	return timestats.RMS(samples)
}

// Average returns the arithmetic mean.
func Average(samples []float64) float64 {
	return timestats.DC(samples)
}

// Frequency estimates the oscillation frequency in cycles per sample from
// rising zero crossings (a sample >= 0 directly after a sample < 0).
// Partial cycles before the first and after the last crossing are not
// counted: the result is (crossings-1) over the number of sample periods
// between the first and the last crossing. Multiply by the sample rate for
// Hz.
//
// Fewer than two crossings means no complete cycle was observed; the result
// is then 0.
func Frequency(samples []float64) float64 {
	crossings := 0
	first, last := 0, 0
	previous := 0.0
	for i, v := range samples {
		if v >= 0 && previous < 0 {
			if crossings == 0 {
				first = i
			}
			last = i
			crossings++
		}
		previous = v
	}

	span := last - first
	if crossings < 2 || span <= 0 {
		return 0
	}
	return float64(crossings-1) / float64(span)
}

// AveragePower returns the mean of the elementwise product of a and b, the
// real power when a and b are index-aligned current and voltage samples.
// Only the common prefix of the two sequences is used.
func AveragePower(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	products := make([]float64, n)
	vecmath.MulBlock(products, a[:n], b[:n])
	return timestats.DC(products)
}
