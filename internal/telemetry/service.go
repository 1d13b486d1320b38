package telemetry

import (
	"context"
	"io"

	"codeberg.org/mutker/powermon/internal/errors"
	"codeberg.org/mutker/powermon/internal/logger"
)

// Config selects the sinks built by NewService.
type Config struct {
	// Print logs every measurement.
	Print bool
	// LineProtocol writes every measurement to Output.
	LineProtocol bool
	Output       io.Writer
	// Tags are added to every measurement.
	Tags map[string]string
}

func (c Config) Validate() error {
	if c.LineProtocol && c.Output == nil {
		return errors.New().WithMessage(ErrInvalidConfig, "line protocol output requires a writer")
	}
	return nil
}

// NewService builds the sink described by cfg. With nothing enabled it
// returns a no-op sink.
func NewService(cfg Config, log logger.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var sinks []Sink
	if cfg.Print {
		sinks = append(sinks, NewLogSink(log))
	}
	if cfg.LineProtocol {
		sinks = append(sinks, NewLineProtocolSink(cfg.Output))
	}

	if len(sinks) == 0 {
		log.Debug().Msg("No telemetry output enabled, using no-op sink")
		return Noop{}, nil
	}

	log.Debug().
		Bool("print", cfg.Print).
		Bool("line_protocol", cfg.LineProtocol).
		Int("tags", len(cfg.Tags)).
		Msg("Telemetry service initialized")

	return &tagged{sink: NewMulti(sinks...), tags: cfg.Tags}, nil
}

type tagged struct {
	sink Sink
	tags map[string]string
}

func (t *tagged) Send(ctx context.Context, m Measurement) error {
	return t.sink.Send(ctx, m.WithTags(t.tags))
}

func (t *tagged) Close() error {
	return t.sink.Close()
}

// Multi sends every measurement to all of its sinks.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Send delivers to every sink even when one fails and returns the first error.
func (m *Multi) Send(ctx context.Context, measurement Measurement) error {
	var first error
	for _, s := range m.sinks {
		if err := s.Send(ctx, measurement); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = errors.New().Wrap(ErrServiceShutdown, err)
		}
	}
	return first
}

// Noop discards measurements.
type Noop struct{}

func (Noop) Send(_ context.Context, _ Measurement) error {
	return nil
}

func (Noop) Close() error {
	return nil
}
