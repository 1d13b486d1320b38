// Package monitor drives the refill, process and publish cycle until the
// context is cancelled or acquisition fails.
package monitor

import (
	"context"
	"time"

	"codeberg.org/mutker/powermon/internal/acquisition"
	"codeberg.org/mutker/powermon/internal/errors"
	"codeberg.org/mutker/powermon/internal/logger"
	"codeberg.org/mutker/powermon/internal/pipeline"
	"codeberg.org/mutker/powermon/internal/telemetry"
)

// Monitor owns one source, pipeline and sink for the lifetime of a run.
type Monitor struct {
	source   acquisition.Source
	pipeline *pipeline.Pipeline
	sink     telemetry.Sink
	log      logger.Logger
	now      func() time.Time
}

type Option func(*Monitor)

// WithClock replaces time.Now for measurement timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithLogger sets the logger used for per-cycle output.
func WithLogger(log logger.Logger) Option {
	return func(m *Monitor) {
		m.log = log
	}
}

func New(source acquisition.Source, p *pipeline.Pipeline, sink telemetry.Sink, opts ...Option) *Monitor {
	m := &Monitor{
		source:   source,
		pipeline: p,
		sink:     sink,
		log:      logger.WithComponent("monitor"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run loops until ctx is done, which is a clean stop and returns nil, or
// until the source or pipeline fails. Sink errors are logged and the loop
// carries on.
func (m *Monitor) Run(ctx context.Context) error {
	errFactory := errors.New()

	m.log.Info().
		Int("buffer_size", m.source.BufferSize()).
		Msg("Monitoring started")

	for {
		if ctx.Err() != nil {
			m.log.Info().Uint64("cycles", m.pipeline.Cycles()).Msg("Monitoring stopped")
			return nil
		}

		frame, err := m.source.Refill(ctx)
		if err != nil {
			if ctx.Err() != nil {
				if !errors.Is(err, ctx.Err()) {
					m.log.Warn().Err(err).Msg("Refill failed during shutdown")
				}
				continue
			}
			if errors.HasCode(err, errors.ErrAcquisition) || errors.HasCode(err, errors.ErrShortBuffer) {
				return err
			}
			return errFactory.Wrap(errors.ErrAcquisition, err)
		}
		ts := m.now()

		set, err := m.pipeline.Process(frame)
		if err != nil {
			return err
		}

		m.log.Debug().
			Float64("voltage", set.VoltageRMS).
			Float64("frequency", set.Frequency).
			Floats64("current", set.CurrentRMS[:]).
			Floats64("power", set.Power[:]).
			Floats64("power_factor", set.PowerFactor[:]).
			Msg("Cycle processed")

		m.publish(ctx, set, ts)
	}
}

func (m *Monitor) publish(ctx context.Context, set pipeline.MeasurementSet, ts time.Time) {
	for _, measurement := range set.Measurements(ts) {
		if err := m.sink.Send(ctx, measurement); err != nil {
			m.log.Warn().
				Err(err).
				Str("measurement", measurement.Name).
				Msg("Failed to send measurement")
		}
	}
}
