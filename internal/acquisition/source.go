// Package acquisition provides sample sources for the metering pipeline.
package acquisition

import (
	"context"

	"codeberg.org/mutker/powermon/internal/channel"
)

// Frame is one refill: a raw reading buffer per channel role, all sampled
// synchronously. Buffers belong to the source until the next Refill and are
// read-only for consumers.
type Frame [channel.Count][]float64

// Source supplies frames of a fixed buffer size.
type Source interface {
	// Refill blocks until the next frame is available. An error ends the run.
	Refill(ctx context.Context) (Frame, error)

	// BufferSize is the number of samples per channel in every frame.
	BufferSize() int

	Close() error
}
