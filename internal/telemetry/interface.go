package telemetry

import (
	"context"
	"time"
)

// Sink accepts measurements. Delivery and retry are up to the implementation.
type Sink interface {
	Send(ctx context.Context, m Measurement) error
	Close() error
}

// Measurement is a named set of numeric fields at one instant.
type Measurement struct {
	Name      string
	Fields    map[string]float64
	Tags      map[string]string
	Timestamp time.Time
}
