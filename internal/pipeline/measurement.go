package pipeline

import (
	"time"

	"codeberg.org/mutker/powermon/internal/channel"
	"codeberg.org/mutker/powermon/internal/telemetry"
)

// MeasurementSet is the result of one refill. Per-line arrays are indexed
// by phase: 0 is L1.
type MeasurementSet struct {
	VoltageRMS  float64
	Frequency   float64 // Hz
	CurrentRMS  [channel.LineCount]float64
	Power       [channel.LineCount]float64 // W
	PowerFactor [channel.LineCount]float64
}

// Measurements converts the set into telemetry measurements stamped ts.
func (s MeasurementSet) Measurements(ts time.Time) []telemetry.Measurement {
	return []telemetry.Measurement{
		{
			Name: "voltage",
			Fields: map[string]float64{
				"voltage":   s.VoltageRMS,
				"frequency": s.Frequency,
			},
			Timestamp: ts,
		},
		{
			Name: "current",
			Fields: map[string]float64{
				"l1": s.CurrentRMS[0],
				"l2": s.CurrentRMS[1],
				"l3": s.CurrentRMS[2],
			},
			Timestamp: ts,
		},
		{
			Name: "power",
			Fields: map[string]float64{
				"l1":  s.Power[0],
				"l2":  s.Power[1],
				"l3":  s.Power[2],
				"pf1": s.PowerFactor[0],
				"pf2": s.PowerFactor[1],
				"pf3": s.PowerFactor[2],
			},
			Timestamp: ts,
		},
	}
}
