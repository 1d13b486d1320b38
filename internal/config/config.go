package config

import (
	"math"
	"os"
	"strings"

	"codeberg.org/mutker/powermon/internal/channel"
	"codeberg.org/mutker/powermon/internal/dsp"
	"codeberg.org/mutker/powermon/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel       = string(LogLevelInfo)
	DefaultSampleRate     = 2100 // divides evenly by 50 and by 3
	DefaultMainsFrequency = 50
	DefaultCutoff         = 1.0
	DefaultPIDFile        = "/run/powermon.pid"

	defaultEnvPrefix  = "POWERMON"
	defaultSearchPath = "/etc"
	configName        = "powermon"
	configEnv         = "POWERMON_CONFIG"
)

// Front-end constants of the reference board: inputs arrive in millivolts.
const (
	burdenResistance        = 99.5                 // ohms
	voltageDividerRatio     = 0.138268156          // 9.9 / (61.7 + 9.9)
	currentTransformerRatio = 0.0005               // 50 mA / 100 A
	transformerRatio        = 0.048869565 * 0.9657 // 11.24 V / 230 V, calibrated
	millivolts              = 1000.0
)

var (
	DefaultVoltageScale = 1 / millivolts / voltageDividerRatio / transformerRatio
	DefaultCurrentScale = 1 / millivolts / burdenResistance / currentTransformerRatio
)

// ChannelConfig holds calibration and conditioning settings for one channel.
type ChannelConfig struct {
	Offset float64 `mapstructure:"offset"`
	Scale  float64 `mapstructure:"scale"`
	Cutoff float64 `mapstructure:"cutoff"`
	// PhaseOffset is the channel's lag behind the voltage reference as a
	// fraction of one mains cycle. The pipeline compensates by delaying its
	// copy of the voltage stream for this line; the current is not shifted.
	PhaseOffset float64 `mapstructure:"phase_offset"`
}

type ChannelsConfig struct {
	Voltage ChannelConfig `mapstructure:"voltage"`
	L1      ChannelConfig `mapstructure:"l1"`
	L2      ChannelConfig `mapstructure:"l2"`
	L3      ChannelConfig `mapstructure:"l3"`
}

type TelemetryConfig struct {
	Tags map[string]string `mapstructure:"tags"`
}

// SourceConfig configures the synthetic sample source.
type SourceConfig struct {
	Kind  string `mapstructure:"kind"`
	Paced bool   `mapstructure:"paced"`
	// Frequency of the generated signal in Hz; 0 uses the mains frequency.
	Frequency        float64   `mapstructure:"frequency"`
	VoltageAmplitude float64   `mapstructure:"voltage_amplitude"`
	VoltageBias      float64   `mapstructure:"voltage_bias"`
	CurrentAmplitude []float64 `mapstructure:"current_amplitude"`
	CurrentPhase     []float64 `mapstructure:"current_phase"`
	CurrentBias      float64   `mapstructure:"current_bias"`
}

type Config struct {
	SampleRate     int             `mapstructure:"sample_rate"`
	MainsFrequency int             `mapstructure:"mains_frequency"`
	BufferSize     int             `mapstructure:"buffer_size"`
	LogLevel       string          `mapstructure:"log_level"`
	Print          bool            `mapstructure:"print"`
	LineProtocol   bool            `mapstructure:"line_protocol"`
	PIDFile        string          `mapstructure:"pid_file"`
	Channels       ChannelsConfig  `mapstructure:"channels"`
	Telemetry      TelemetryConfig `mapstructure:"telemetry"`
	Source         SourceConfig    `mapstructure:"source"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sample_rate", DefaultSampleRate)
	v.SetDefault("mains_frequency", DefaultMainsFrequency)
	v.SetDefault("buffer_size", 0)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("print", false)
	v.SetDefault("line_protocol", false)
	v.SetDefault("pid_file", DefaultPIDFile)

	phase := map[string]float64{"voltage": 0, "l1": 0, "l2": 1.0 / 3, "l3": 2.0 / 3}
	for _, role := range channel.Roles {
		key := "channels." + role.String()
		scale := DefaultCurrentScale
		if role == channel.Voltage {
			scale = DefaultVoltageScale
		}
		v.SetDefault(key+".offset", 0.0)
		v.SetDefault(key+".scale", scale)
		v.SetDefault(key+".cutoff", DefaultCutoff)
		v.SetDefault(key+".phase_offset", phase[role.String()])
	}

	v.SetDefault("telemetry.tags", map[string]string{})

	v.SetDefault("source.kind", "synthetic")
	v.SetDefault("source.paced", true)
	v.SetDefault("source.frequency", 0.0)
	v.SetDefault("source.voltage_amplitude", 325.0)
	v.SetDefault("source.voltage_bias", 0.0)
	v.SetDefault("source.current_amplitude", []float64{10, 10, 10})
	v.SetDefault("source.current_phase", []float64{0, -120, -240})
	v.SetDefault("source.current_bias", 0.0)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("powermon", pflag.ContinueOnError)
	fs.String("config", "", "Path to configuration file")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Int("sample-rate", DefaultSampleRate, "ADC sample rate in Hz")
	fs.Int("mains-frequency", DefaultMainsFrequency, "Nominal mains frequency in Hz")
	fs.Int("buffer-size", 0, "Samples per channel per refill (0: one second)")
	fs.Bool("print", false, "Log every measurement")
	fs.Bool("line-protocol", false, "Write measurements to stdout in line protocol")
	fs.String("pid-file", DefaultPIDFile, "PID file path")
	fs.Bool("paced", true, "Pace the synthetic source in real time")
	return fs
}

var flagKeys = map[string]string{
	"log-level":       "log_level",
	"sample-rate":     "sample_rate",
	"mains-frequency": "mains_frequency",
	"buffer-size":     "buffer_size",
	"print":           "print",
	"line-protocol":   "line_protocol",
	"pid-file":        "pid_file",
	"paced":           "source.paced",
}

// Load reads configuration from defaults, the config file, the environment
// and args (command-line flags, without the program name), in increasing
// order of precedence.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		envPrefix:  defaultEnvPrefix,
		searchPath: defaultSearchPath,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := o.configPath
	if f := fs.Lookup("config"); f.Changed {
		path = f.Value.String()
	}
	if path == "" {
		path = os.Getenv(configEnv)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("toml")
		v.AddConfigPath(o.searchPath)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Only flags set on the command line override the file and environment.
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errFactory.Wrap(errors.ErrBindFlags, err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config, decodeHook()); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if config.BufferSize == 0 {
		config.BufferSize = config.SampleRate
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.SampleRate <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "sample_rate must be positive")
	}
	if c.MainsFrequency <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "mains_frequency must be positive")
	}
	if c.SampleRate < 2*c.MainsFrequency {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "sample_rate must be at least twice mains_frequency")
	}
	if c.BufferSize <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "buffer_size must be positive")
	}

	for _, role := range channel.Roles {
		cc := c.Channel(role)
		if cc.Scale == 0 {
			return errFactory.WithMessage(errors.ErrInvalidConfig, "channels."+role.String()+".scale must be non-zero")
		}
		if cc.Cutoff <= 0 {
			return errFactory.WithMessage(errors.ErrInvalidConfig, "channels."+role.String()+".cutoff must be positive")
		}
		if cc.PhaseOffset < 0 || cc.PhaseOffset >= 1 {
			return errFactory.WithMessage(errors.ErrInvalidConfig, "channels."+role.String()+".phase_offset must be in [0, 1)")
		}
	}

	if c.Channels.Voltage.PhaseOffset != 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "channels.voltage.phase_offset must be 0, voltage is the phase reference")
	}

	if c.Source.Kind != "synthetic" {
		return errFactory.WithData(errors.ErrInvalidConfig, "unsupported source kind "+c.Source.Kind)
	}
	if len(c.Source.CurrentAmplitude) != len(channel.Lines) || len(c.Source.CurrentPhase) != len(channel.Lines) {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "source.current_amplitude and source.current_phase need one value per line")
	}

	return nil
}

// Channel returns the settings of one channel role.
func (c *Config) Channel(role channel.Role) ChannelConfig {
	switch role {
	case channel.Line1:
		return c.Channels.L1
	case channel.Line2:
		return c.Channels.L2
	case channel.Line3:
		return c.Channels.L3
	default:
		return c.Channels.Voltage
	}
}

// SamplesPerCycle is the number of samples in one mains cycle.
func (c *Config) SamplesPerCycle() int {
	return c.SampleRate / c.MainsFrequency
}

// ChannelSet builds the immutable channel descriptors.
func (c *Config) ChannelSet() [channel.Count]channel.Channel {
	var set [channel.Count]channel.Channel
	perCycle := float64(c.SamplesPerCycle())
	for _, role := range channel.Roles {
		cc := c.Channel(role)
		set[role] = channel.Channel{
			Role:         role,
			Calibration:  dsp.Calibration{Offset: cc.Offset, Scale: cc.Scale},
			DelaySamples: int(math.Round(perCycle * cc.PhaseOffset)),
			Cutoff:       cc.Cutoff,
		}
	}
	return set
}

// SignalFrequency is the frequency the synthetic source generates.
func (c *Config) SignalFrequency() float64 {
	if c.Source.Frequency > 0 {
		return c.Source.Frequency
	}
	return float64(c.MainsFrequency)
}
