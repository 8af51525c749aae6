package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/rgbmond/internal/colormap"
	"codeberg.org/mutker/rgbmond/internal/errors"
	"codeberg.org/mutker/rgbmond/internal/openrgb"
	"codeberg.org/mutker/rgbmond/internal/pid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultAddress     = "127.0.0.1:6742"
	DefaultInterval    = 2
	DefaultTimeout     = 1
	DefaultLoadDiff    = 1
	DefaultDeviceTypes = "0,1,2,3,4"

	configEnvVar = "RGBMOND_CONFIG"
)

type Config struct {
	Connect      string `mapstructure:"connect"`
	Interval     int    `mapstructure:"interval"`
	Timeout      int    `mapstructure:"timeout"`
	LoadDiff     int    `mapstructure:"load_diff"`
	DefaultColor string `mapstructure:"default_color"`
	DeviceTypes  string `mapstructure:"device_types"`
	PIDFile      string `mapstructure:"pid_file"`
	MetricsDB    string `mapstructure:"metrics_db"`
	Metrics      bool   `mapstructure:"metrics"`
	Verbose      bool   `mapstructure:"verbose"`
	Debug        bool   `mapstructure:"debug"`

	// Derived during Load
	Spec    colormap.Spec        `mapstructure:"-"`
	Enabled []openrgb.DeviceType `mapstructure:"-"`
}

// Load reads configuration from flags, the config file and defaults, in
// that order of precedence. Validation failures are startup-fatal for the
// caller.
func Load() (*Config, error) {
	return loadFrom(os.Args[1:])
}

func loadFrom(args []string) (*Config, error) {
	errFactory := errors.New()

	fs := pflag.NewFlagSet("rgbmond", pflag.ContinueOnError)
	fs.String("connect", DefaultAddress, "Lighting server host:port to connect to")
	fs.Int("interval", DefaultInterval, "Seconds between load samples")
	fs.Int("timeout", DefaultTimeout, "Protocol call timeout in seconds")
	fs.Int("load-diff", DefaultLoadDiff, "Minimum load change in percent before a new push")
	fs.String("default-color", "", "Default color for low CPU load (percent:RRGGBB)")
	fs.String("device-types", DefaultDeviceTypes, "Device types to operate, comma separated")
	fs.String("pid-file", pid.DefaultPath(), "Pid file location")
	fs.Bool("metrics", false, "Record tick metrics to the metrics database")
	fs.String("metrics-db", "", "Metrics database location")
	fs.BoolP("verbose", "v", false, "Enable verbose logging")
	fs.Bool("debug", false, "Enable debugging mode")

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	v := viper.New()
	v.SetDefault("connect", DefaultAddress)
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("load_diff", DefaultLoadDiff)
	v.SetDefault("default_color", "")
	v.SetDefault("device_types", DefaultDeviceTypes)
	v.SetDefault("pid_file", pid.DefaultPath())
	v.SetDefault("metrics", false)
	v.SetDefault("metrics_db", "")
	v.SetDefault("verbose", false)
	v.SetDefault("debug", false)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Command line flags win over the config file
	fs.Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		switch f.Name {
		case "interval", "timeout", "load-diff":
			n, _ := fs.GetInt(f.Name)
			v.Set(key, n)
		case "metrics", "verbose", "debug":
			b, _ := fs.GetBool(f.Name)
			v.Set(key, b)
		default:
			v.Set(key, f.Value.String())
		}
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func readConfigFile(v *viper.Viper) error {
	errFactory := errors.New()
	v.SetConfigType("toml")

	if path := os.Getenv(configEnvVar); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}

		return nil
	}

	v.SetConfigName("rgbmond.conf")
	v.AddConfigPath("/etc")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

func (c *Config) validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.Timeout <= 0 || c.Timeout > c.Interval {
		return errFactory.WithData(errors.ErrInvalidTimeout, c.Timeout)
	}
	if c.LoadDiff < 0 || c.LoadDiff > 100 {
		return errFactory.WithData(errors.ErrInvalidConfig, c.LoadDiff)
	}

	enabled, err := parseDeviceTypes(c.DeviceTypes)
	if err != nil {
		return err
	}
	c.Enabled = enabled

	spec, err := parseColorSpec(c.DefaultColor)
	if err != nil {
		return err
	}
	c.Spec = spec

	return nil
}

func parseDeviceTypes(s string) ([]openrgb.DeviceType, error) {
	errFactory := errors.New()

	var types []openrgb.DeviceType
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, errFactory.WithData(errors.ErrInvalidDeviceType, part)
		}

		t := openrgb.DeviceType(id)
		if id < 0 || !t.IsValid() {
			return nil, errFactory.WithData(errors.ErrInvalidDeviceType, part)
		}

		types = append(types, t)
	}

	if len(types) == 0 {
		return nil, errFactory.WithData(errors.ErrInvalidDeviceType, s)
	}

	return types, nil
}

// parseColorSpec parses "percent:RRGGBB". An empty spec leaves the
// gradient covering the full load range.
func parseColorSpec(s string) (colormap.Spec, error) {
	errFactory := errors.New()

	if s == "" {
		return colormap.Spec{}, nil
	}

	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return colormap.Spec{}, errFactory.WithData(errors.ErrInvalidColorSpec, s)
	}

	percent, err := strconv.Atoi(parts[0])
	if err != nil || percent < 0 || percent > 100 {
		return colormap.Spec{}, errFactory.WithData(errors.ErrInvalidColorSpec, s)
	}

	color, err := colormap.ParseHex(parts[1])
	if err != nil {
		return colormap.Spec{}, err
	}

	return colormap.Spec{
		Threshold: float64(percent) / 100,
		Default:   color,
	}, nil
}

func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// LoadDiffFraction converts the configured percent to a load fraction
func (c *Config) LoadDiffFraction() float64 {
	return float64(c.LoadDiff) / 100
}
