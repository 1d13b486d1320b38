package dsp

// DelayLine shifts a sample stream later by a fixed number of samples.
//
// The line starts filled with zero placeholders, so the first n outputs of a
// fresh line are zeros rather than earlier samples. After that, the value
// returned by the k-th call to Advance is the value passed on call k-n.
// A zero-length line is the identity.
type DelayLine struct {
	buf []float64
	pos int
}

// NewDelayLine returns a delay line of n samples. Negative n is treated as 0.
func NewDelayLine(n int) *DelayLine {
	if n < 0 {
		n = 0
	}
	return &DelayLine{buf: make([]float64, n)}
}

// Len returns the delay in samples.
func (d *DelayLine) Len() int {
	return len(d.buf)
}

// Advance pushes sample and returns the oldest buffered value.
func (d *DelayLine) Advance(sample float64) float64 {
	if len(d.buf) == 0 {
		return sample
	}
	out := d.buf[d.pos]
	d.buf[d.pos] = sample
	d.pos++
	if d.pos == len(d.buf) {
		d.pos = 0
	}
	return out
}

// Process runs Advance over src in order, writing the delayed stream to dst.
// dst must be at least len(src) long; dst may alias src.
func (d *DelayLine) Process(dst, src []float64) {
	for i, v := range src {
		dst[i] = d.Advance(v)
	}
}
