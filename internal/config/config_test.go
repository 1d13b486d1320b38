package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/powermon/internal/channel"
	"codeberg.org/mutker/powermon/internal/config"
	"codeberg.org/mutker/powermon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "powermon.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// noFile keeps Load away from any powermon.toml installed on the host.
func noFile(t *testing.T) config.Option {
	t.Helper()
	t.Setenv("POWERMON_CONFIG", "")
	return config.WithSearchPath(t.TempDir())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
sample_rate = 4000
mains_frequency = 60
buffer_size = 2000
log_level = "debug"
print = true
line_protocol = true
pid_file = "/tmp/powermon-test.pid"

[channels.voltage]
offset = 2048
scale = 0.5
cutoff = 2

[channels.l2]
phase_offset = 0.25

[telemetry.tags]
site = "garage"

[source]
paced = false
voltage_amplitude = 170
current_amplitude = [5, 6, 7]
current_phase = [0, -90, -180]
`)
	t.Setenv("POWERMON_CONFIG", path)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.SampleRate)
	assert.Equal(t, 60, cfg.MainsFrequency)
	assert.Equal(t, 2000, cfg.BufferSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Print)
	assert.True(t, cfg.LineProtocol)
	assert.Equal(t, "/tmp/powermon-test.pid", cfg.PIDFile)
	assert.Equal(t, 2048.0, cfg.Channels.Voltage.Offset)
	assert.Equal(t, 0.5, cfg.Channels.Voltage.Scale)
	assert.Equal(t, 2.0, cfg.Channels.Voltage.Cutoff)
	assert.Equal(t, 0.25, cfg.Channels.L2.PhaseOffset)
	assert.Equal(t, config.DefaultCurrentScale, cfg.Channels.L2.Scale, "unset keys keep defaults")
	assert.Equal(t, map[string]string{"site": "garage"}, cfg.Telemetry.Tags)
	assert.False(t, cfg.Source.Paced)
	assert.Equal(t, 170.0, cfg.Source.VoltageAmplitude)
	assert.Equal(t, []float64{5, 6, 7}, cfg.Source.CurrentAmplitude)
	assert.Equal(t, []float64{0, -90, -180}, cfg.Source.CurrentPhase)
	assert.Equal(t, 60.0, cfg.SignalFrequency())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(nil, noFile(t))
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, 2100, cfg.SampleRate)
	assert.Equal(t, 50, cfg.MainsFrequency)
	assert.Equal(t, 2100, cfg.BufferSize, "buffer defaults to one second")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.Print)
	assert.False(t, cfg.LineProtocol)
	assert.Equal(t, 42, cfg.SamplesPerCycle())
	assert.Equal(t, config.DefaultVoltageScale, cfg.Channels.Voltage.Scale)
	assert.Equal(t, config.DefaultCurrentScale, cfg.Channels.L1.Scale)
	assert.Equal(t, 1.0, cfg.Channels.L3.Cutoff)
	assert.True(t, cfg.Source.Paced)
}

func TestDefaultCalibrationConstants(t *testing.T) {
	// 1 V on the ADC input is 1000 mV.
	assert.InDelta(t, 153.25, 1000*config.DefaultVoltageScale, 0.01)
	assert.InDelta(t, 20.1, 1000*config.DefaultCurrentScale, 0.01)
}

func TestChannelSetDelays(t *testing.T) {
	cfg, err := config.Load(nil, noFile(t))
	require.NoError(t, err)

	set := cfg.ChannelSet()
	assert.Equal(t, 0, set[channel.Voltage].DelaySamples)
	assert.Equal(t, 0, set[channel.Line1].DelaySamples)
	assert.Equal(t, 14, set[channel.Line2].DelaySamples)
	assert.Equal(t, 28, set[channel.Line3].DelaySamples)
	for _, role := range channel.Roles {
		assert.Equal(t, role, set[role].Role)
		assert.Equal(t, 1.0, set[role].Cutoff)
	}
	assert.Equal(t, config.DefaultVoltageScale, set[channel.Voltage].Calibration.Scale)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	path := writeConfig(t, `
This is not a valid TOML file
`)

	_, err := config.Load(nil, config.WithConfigFile(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(nil, config.WithConfigFile(filepath.Join(t.TempDir(), "missing.toml")))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	path := writeConfig(t, `
log_level = "invalid"
`)

	_, err := config.Load(nil, config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
	assert.Contains(t, err.Error(), "invalid")
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
sample_rate = 4000
log_level = "warning"
`)

	cfg, err := config.Load([]string{
		"--config", path,
		"--log-level", "debug",
		"--sample-rate", "4200",
		"--line-protocol",
		"--paced=false",
	}, noFile(t))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
	assert.Equal(t, 4200, cfg.SampleRate)
	assert.Equal(t, 4200, cfg.BufferSize)
	assert.True(t, cfg.LineProtocol)
	assert.False(t, cfg.Source.Paced)
}

func TestUnsetFlagsDoNotOverrideFile(t *testing.T) {
	path := writeConfig(t, `
sample_rate = 4000
`)

	cfg, err := config.Load([]string{"--print"}, config.WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.SampleRate)
	assert.True(t, cfg.Print)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("POWERMON_MAINS_FREQUENCY", "60")
	t.Setenv("POWERMON_CHANNELS_L1_CUTOFF", "0.5")

	cfg, err := config.Load(nil, noFile(t))
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.MainsFrequency)
	assert.Equal(t, 35, cfg.SamplesPerCycle())
	assert.Equal(t, 0.5, cfg.Channels.L1.Cutoff)
}

func TestEnvironmentListsAndMaps(t *testing.T) {
	tests := []struct {
		name      string
		amplitude string
		tags      string
		wantTags  map[string]string
	}{
		{"spaces", "5 6 7", "site=garage", map[string]string{"site": "garage"}},
		{"commas", "5,6,7", "site=garage,board=a", map[string]string{"site": "garage", "board": "a"}},
		{"mixed", " 5, 6 7 ", " site = garage , ", map[string]string{"site": "garage"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("POWERMON_SOURCE_CURRENT_AMPLITUDE", tt.amplitude)
			t.Setenv("POWERMON_SOURCE_CURRENT_PHASE", "0 -90 -180")
			t.Setenv("POWERMON_TELEMETRY_TAGS", tt.tags)

			cfg, err := config.Load(nil, noFile(t))
			require.NoError(t, err)
			assert.Equal(t, []float64{5, 6, 7}, cfg.Source.CurrentAmplitude)
			assert.Equal(t, []float64{0, -90, -180}, cfg.Source.CurrentPhase)
			assert.Equal(t, tt.wantTags, cfg.Telemetry.Tags)
		})
	}
}

func TestEnvironmentMalformedTags(t *testing.T) {
	t.Setenv("POWERMON_TELEMETRY_TAGS", "garage")

	_, err := config.Load(nil, noFile(t))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
}

func TestCustomEnvPrefix(t *testing.T) {
	t.Setenv("METER_SAMPLE_RATE", "8000")

	cfg, err := config.Load(nil, noFile(t), config.WithEnvPrefix("METER"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.SampleRate)
}

func TestUnknownFlag(t *testing.T) {
	_, err := config.Load([]string{"--fanspeed", "80"}, noFile(t))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrBindFlags))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		config string
		want   string
	}{
		{"zero sample rate", "sample_rate = 0", "sample_rate must be positive"},
		{"negative mains", "mains_frequency = -50", "mains_frequency must be positive"},
		{"undersampled", "sample_rate = 80", "at least twice"},
		{"negative buffer", "buffer_size = -1", "buffer_size must be positive"},
		{"zero scale", "[channels.l1]\nscale = 0", "channels.l1.scale"},
		{"zero cutoff", "[channels.voltage]\ncutoff = 0", "channels.voltage.cutoff"},
		{"phase offset of a full cycle", "[channels.l3]\nphase_offset = 1.0", "channels.l3.phase_offset"},
		{"delayed voltage reference", "[channels.voltage]\nphase_offset = 0.5", "voltage is the phase reference"},
		{"unknown source", "[source]\nkind = \"iio\"", "unsupported source kind iio"},
		{"short amplitude list", "[source]\ncurrent_amplitude = [1, 2]", "one value per line"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.config)
			_, err := config.Load(nil, config.WithConfigFile(path))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
