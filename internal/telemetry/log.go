package telemetry

import (
	"context"

	"codeberg.org/mutker/powermon/internal/logger"
)

// LogSink writes every measurement as one structured log event.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Send(_ context.Context, m Measurement) error {
	if err := m.Validate(); err != nil {
		return err
	}

	event := s.log.Info().Str("measurement", m.Name)
	for _, k := range sortedKeys(m.Tags) {
		event.Str(k, m.Tags[k])
	}
	for _, k := range sortedKeys(m.Fields) {
		event.Float64(k, m.Fields[k])
	}
	event.Msg("")

	return nil
}

func (*LogSink) Close() error {
	return nil
}
