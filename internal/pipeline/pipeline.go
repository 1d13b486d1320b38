// Package pipeline turns one refill of raw samples into a MeasurementSet:
// calibration, DC removal and phase alignment per channel, followed by the
// meter estimators.
package pipeline

import (
	"fmt"

	"codeberg.org/mutker/powermon/internal/acquisition"
	"codeberg.org/mutker/powermon/internal/channel"
	"codeberg.org/mutker/powermon/internal/config"
	"codeberg.org/mutker/powermon/internal/dsp"
	"codeberg.org/mutker/powermon/internal/errors"
	"codeberg.org/mutker/powermon/internal/meter"
)

// State of the pipeline. It leaves Idle on the first processed refill and
// never returns.
type State int

const (
	StateIdle State = iota
	StateSteady
)

func (s State) String() string {
	if s == StateSteady {
		return "steady"
	}
	return "idle"
}

// Pipeline holds the per-channel filter and delay state that must survive
// from one refill to the next. It is not safe for concurrent use.
type Pipeline struct {
	sampleRate int
	bufferSize int
	channels   [channel.Count]channel.Channel

	filters [channel.Count]*dsp.HighPassFilter
	// delays[k] aligns the voltage stream with line k+1.
	delays [channel.LineCount]*dsp.DelayLine

	conditioned [channel.Count][]float64
	aligned     [channel.LineCount][]float64

	state  State
	cycles uint64
}

// New creates a pipeline for buffers of bufferSize samples at sampleRate.
// The voltage channel is the phase reference and must have no delay.
func New(sampleRate, bufferSize int, channels [channel.Count]channel.Channel) (*Pipeline, error) {
	errFactory := errors.New()

	if sampleRate <= 0 || bufferSize <= 0 {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "sample rate and buffer size must be positive")
	}
	if channels[channel.Voltage].DelaySamples != 0 {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "voltage reference cannot be delayed")
	}

	p := &Pipeline{
		sampleRate: sampleRate,
		bufferSize: bufferSize,
		channels:   channels,
	}

	dt := 1 / float64(sampleRate)
	for _, role := range channel.Roles {
		ch := channels[role]
		if ch.Role != role {
			return nil, errFactory.WithData(errors.ErrInvalidArgument, fmt.Sprintf("channel %d has role %s", role, ch.Role))
		}
		if ch.Calibration.Scale == 0 || ch.Cutoff <= 0 || ch.DelaySamples < 0 {
			return nil, errFactory.WithData(errors.ErrInvalidArgument, "bad settings for channel "+role.String())
		}
		p.filters[role] = dsp.NewHighPassFilter(dt, ch.Cutoff)
		p.conditioned[role] = make([]float64, bufferSize)
	}
	for i, role := range channel.Lines {
		p.delays[i] = dsp.NewDelayLine(channels[role].DelaySamples)
		p.aligned[i] = make([]float64, bufferSize)
	}

	return p, nil
}

// NewFromConfig creates a pipeline from the loaded configuration.
func NewFromConfig(cfg *config.Config) (*Pipeline, error) {
	return New(cfg.SampleRate, cfg.BufferSize, cfg.ChannelSet())
}

func (p *Pipeline) State() State {
	return p.state
}

// Cycles returns the number of refills processed.
func (p *Pipeline) Cycles() uint64 {
	return p.cycles
}

// Process conditions one frame and meters it. A frame with a missing or
// wrongly sized buffer is rejected before any channel state changes.
func (p *Pipeline) Process(frame acquisition.Frame) (MeasurementSet, error) {
	if err := p.check(frame); err != nil {
		return MeasurementSet{}, err
	}

	for _, role := range channel.Roles {
		buf := p.conditioned[role]
		p.channels[role].Calibration.ApplyBlock(buf, frame[role])
		p.filters[role].Process(buf, buf)
	}

	voltage := p.conditioned[channel.Voltage]
	for i := range channel.Lines {
		p.delays[i].Process(p.aligned[i], voltage)
	}

	set := MeasurementSet{
		VoltageRMS: meter.RMS(voltage),
		Frequency:  meter.Frequency(voltage) * float64(p.sampleRate),
	}
	for i, role := range channel.Lines {
		current := p.conditioned[role]
		set.CurrentRMS[i] = meter.RMS(current)
		set.Power[i] = meter.AveragePower(current, p.aligned[i])
		set.PowerFactor[i] = PowerFactor(set.Power[i], set.CurrentRMS[i], set.VoltageRMS)
	}

	p.state = StateSteady
	p.cycles++

	return set, nil
}

func (p *Pipeline) check(frame acquisition.Frame) error {
	errFactory := errors.New()

	for _, role := range channel.Roles {
		n := len(frame[role])
		switch {
		case n < p.bufferSize:
			return errFactory.WithData(errors.ErrShortBuffer,
				fmt.Sprintf("channel %s has %d of %d samples", role, n, p.bufferSize))
		case n > p.bufferSize:
			return errFactory.WithData(errors.ErrInvalidFrame,
				fmt.Sprintf("channel %s has %d samples, expected %d", role, n, p.bufferSize))
		}
	}
	return nil
}

// PowerFactor is real power over apparent power. It returns 0 when either
// RMS value is zero and the ratio is undefined.
func PowerFactor(power, currentRMS, voltageRMS float64) float64 {
	apparent := currentRMS * voltageRMS
	if apparent == 0 {
		return 0
	}
	return power / apparent
}
