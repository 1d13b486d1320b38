package telemetry

import "context"

// FakeSink records measurements for test assertions.
type FakeSink struct {
	// Measurements contains everything that was sent successfully.
	Measurements []Measurement

	// SendError, if set, will be returned by Send.
	SendError error

	// CloseError, if set, will be returned by Close.
	CloseError error

	// Closed tracks if Close was called.
	Closed bool
}

func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

func (f *FakeSink) Send(_ context.Context, m Measurement) error {
	if f.SendError != nil {
		return f.SendError
	}
	f.Measurements = append(f.Measurements, m)
	return nil
}

func (f *FakeSink) Close() error {
	f.Closed = true
	return f.CloseError
}

// Named returns the recorded measurements called name, in order.
func (f *FakeSink) Named(name string) []Measurement {
	var out []Measurement
	for _, m := range f.Measurements {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}
