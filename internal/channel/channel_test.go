package channel_test

import (
	"testing"

	"codeberg.org/mutker/powermon/internal/channel"
	"github.com/stretchr/testify/assert"
)

func TestRoleString(t *testing.T) {
	assert.Equal(t, "voltage", channel.Voltage.String())
	assert.Equal(t, "l1", channel.Line1.String())
	assert.Equal(t, "l2", channel.Line2.String())
	assert.Equal(t, "l3", channel.Line3.String())
	assert.Equal(t, "role(9)", channel.Role(9).String())
}

func TestRolePhase(t *testing.T) {
	assert.False(t, channel.Voltage.IsCurrent())
	assert.Equal(t, -1, channel.Voltage.Phase())
	for i, r := range channel.Lines {
		assert.True(t, r.IsCurrent())
		assert.Equal(t, i, r.Phase())
	}
}
