package acquisition

import (
	"context"

	"codeberg.org/mutker/powermon/internal/errors"
)

// FakeSource replays queued frames for tests.
type FakeSource struct {
	// Frames are returned in order, one per Refill.
	Frames []Frame

	// Err is returned once Frames is exhausted. Nil means an
	// ErrAcquisition "no more frames" error.
	Err error

	// Size is reported by BufferSize.
	Size int

	// Refills counts calls to Refill.
	Refills int

	// OnRefill, if set, runs at the start of every Refill.
	OnRefill func(n int)

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSource creates a FakeSource serving frames.
func NewFakeSource(size int, frames ...Frame) *FakeSource {
	return &FakeSource{Frames: frames, Size: size}
}

func (f *FakeSource) Refill(_ context.Context) (Frame, error) {
	f.Refills++
	if f.OnRefill != nil {
		f.OnRefill(f.Refills)
	}

	if len(f.Frames) == 0 {
		if f.Err != nil {
			return Frame{}, f.Err
		}
		return Frame{}, errors.New().WithMessage(errors.ErrAcquisition, "no more frames")
	}

	frame := f.Frames[0]
	f.Frames = f.Frames[1:]
	return frame, nil
}

func (f *FakeSource) BufferSize() int {
	return f.Size
}

func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}
