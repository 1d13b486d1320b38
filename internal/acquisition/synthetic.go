package acquisition

import (
	"context"
	"math"
	"time"

	"codeberg.org/mutker/powermon/internal/channel"
	"codeberg.org/mutker/powermon/internal/config"
	"codeberg.org/mutker/powermon/internal/errors"
)

// Waveform is a sine with a DC bias, in physical units.
type Waveform struct {
	Amplitude float64 // peak
	Phase     float64 // degrees
	Bias      float64
}

// SyntheticConfig describes the generated supply.
type SyntheticConfig struct {
	SampleRate int
	BufferSize int
	Frequency  float64
	Waveforms  [channel.Count]Waveform
	// Channels supplies the calibration used to turn physical values back
	// into raw readings.
	Channels [channel.Count]channel.Channel
	// Paced makes every Refill wait one buffer duration, like real hardware.
	Paced bool
}

// Synthetic generates a phase-continuous three-phase test signal.
type Synthetic struct {
	cfg    SyntheticConfig
	frame  Frame
	sample int64
	closed bool
}

// NewSynthetic creates a synthetic source.
func NewSynthetic(cfg SyntheticConfig) (*Synthetic, error) {
	errFactory := errors.New()

	if cfg.SampleRate <= 0 || cfg.BufferSize <= 0 {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "sample rate and buffer size must be positive")
	}
	for _, ch := range cfg.Channels {
		if ch.Calibration.Scale == 0 {
			return nil, errFactory.WithData(errors.ErrInvalidArgument, "zero calibration scale on "+ch.Role.String())
		}
	}

	s := &Synthetic{cfg: cfg}
	for i := range s.frame {
		s.frame[i] = make([]float64, cfg.BufferSize)
	}
	return s, nil
}

func (s *Synthetic) BufferSize() int {
	return s.cfg.BufferSize
}

// Refill generates the next buffer for every channel.
func (s *Synthetic) Refill(ctx context.Context) (Frame, error) {
	errFactory := errors.New()

	if s.closed {
		return Frame{}, errFactory.WithMessage(errors.ErrAcquisition, "source closed")
	}

	if s.cfg.Paced {
		if err := s.wait(ctx); err != nil {
			return Frame{}, errFactory.Wrap(errors.ErrAcquisition, err)
		}
	} else if err := ctx.Err(); err != nil {
		return Frame{}, errFactory.Wrap(errors.ErrAcquisition, err)
	}

	omega := 2 * math.Pi * s.cfg.Frequency / float64(s.cfg.SampleRate)
	for _, role := range channel.Roles {
		w := s.cfg.Waveforms[role]
		cal := s.cfg.Channels[role].Calibration
		phase := w.Phase * math.Pi / 180
		buf := s.frame[role]
		for i := range buf {
			n := float64(s.sample + int64(i))
			buf[i] = cal.Invert(w.Amplitude*math.Sin(omega*n+phase) + w.Bias)
		}
	}
	s.sample += int64(s.cfg.BufferSize)

	return s.frame, nil
}

func (s *Synthetic) wait(ctx context.Context) error {
	d := time.Duration(float64(s.cfg.BufferSize) / float64(s.cfg.SampleRate) * float64(time.Second))
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Synthetic) Close() error {
	s.closed = true
	return nil
}

// NewSyntheticFromConfig builds the synthetic source described by cfg.
func NewSyntheticFromConfig(cfg *config.Config) (*Synthetic, error) {
	sc := SyntheticConfig{
		SampleRate: cfg.SampleRate,
		BufferSize: cfg.BufferSize,
		Frequency:  cfg.SignalFrequency(),
		Channels:   cfg.ChannelSet(),
		Paced:      cfg.Source.Paced,
	}
	sc.Waveforms[channel.Voltage] = Waveform{
		Amplitude: cfg.Source.VoltageAmplitude,
		Bias:      cfg.Source.VoltageBias,
	}
	for i, role := range channel.Lines {
		w := Waveform{Bias: cfg.Source.CurrentBias}
		if i < len(cfg.Source.CurrentAmplitude) {
			w.Amplitude = cfg.Source.CurrentAmplitude[i]
		}
		if i < len(cfg.Source.CurrentPhase) {
			w.Phase = cfg.Source.CurrentPhase[i]
		}
		sc.Waveforms[role] = w
	}
	return NewSynthetic(sc)
}
