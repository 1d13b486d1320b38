// Package channel describes the logical input channels of a three-phase
// supply: one voltage reference and three line currents.
package channel

import (
	"fmt"

	"codeberg.org/mutker/powermon/internal/dsp"
)

// Role identifies a logical channel.
type Role int

const (
	Voltage Role = iota
	Line1
	Line2
	Line3
)

const (
	// Count is the number of channel roles.
	Count = 4
	// LineCount is the number of line current channels.
	LineCount = 3
)

// Roles lists every role in processing order.
var Roles = [Count]Role{Voltage, Line1, Line2, Line3}

// Lines lists the current channel roles.
var Lines = [LineCount]Role{Line1, Line2, Line3}

// String returns the configuration key of the role.
func (r Role) String() string {
	switch r {
	case Voltage:
		return "voltage"
	case Line1:
		return "l1"
	case Line2:
		return "l2"
	case Line3:
		return "l3"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// IsCurrent reports whether the role is a line current.
func (r Role) IsCurrent() bool {
	return r == Line1 || r == Line2 || r == Line3
}

// Phase returns the zero-based phase index of a current role, or -1.
func (r Role) Phase() int {
	if !r.IsCurrent() {
		return -1
	}
	return int(r - Line1)
}

// Channel is the immutable description of one input channel, built once at
// start-up from configuration.
type Channel struct {
	Role        Role
	Calibration dsp.Calibration
	// DelaySamples is the phase offset of the channel against the voltage
	// reference, in samples.
	DelaySamples int
	// Cutoff is the high-pass cutoff frequency in Hz.
	Cutoff float64
}
