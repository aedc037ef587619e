package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/ini.v1"
)

// Env holds deployment settings taken from the environment
type Env struct {
	// Where artefacts are written: local or gcs
	Storage   string `env:"CHARTS_STORAGE,default=local"`
	GCSBucket string `env:"GCS_BUCKET"`

	// Overrides [Paths] OutputDir when set
	OutputDir string `env:"CHARTS_OUTPUT_DIR"`

	NonIncremental bool `env:"CHARTS_NON_INCREMENTAL,default=false"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// StationSection is the [Station] section of the INI file
type StationSection struct {
	TempUnit     string `ini:"TempUnit"`
	PressureUnit string `ini:"PressureUnit"`
	RainUnit     string `ini:"RainUnit"`
	WindUnit     string `ini:"WindUnit"`
	// Logging and upload interval in minutes
	LogInterval int `ini:"LogInterval"`
}

// GraphsSection is the [Graphs] section of the INI file
type GraphsSection struct {
	GraphHours     int    `ini:"GraphHours"`
	DailyGraphDays int    `ini:"DailyGraphDays"`
	ChartHeight    int    `ini:"ChartHeight"`
	WindBarbColor  string `ini:"WindBarbColor"`
	NonIncremental bool   `ini:"NonIncremental"`
}

// PathsSection is the [Paths] section of the INI file
type PathsSection struct {
	DataDir     string `ini:"DataDir"`
	OutputDir   string `ini:"OutputDir"`
	StateDir    string `ini:"StateDir"`
	WindDataURL string `ini:"WindDataURL"`
}

// Config is the complete configuration of one run
type Config struct {
	Station StationSection
	Graphs  GraphsSection
	Paths   PathsSection
	Env     Env
}

// Default returns the settings used for anything the INI file leaves out
func Default() *Config {
	return &Config{
		Station: StationSection{
			TempUnit:     "C",
			PressureUnit: "hPa",
			RainUnit:     "mm",
			WindUnit:     "km/h",
			LogInterval:  10,
		},
		Graphs: GraphsSection{
			GraphHours:     72,
			DailyGraphDays: 30,
			ChartHeight:    500,
			WindBarbColor:  "black",
		},
		Paths: PathsSection{
			DataDir:   "data",
			OutputDir: "web",
			StateDir:  ".",
		},
		Env: Env{
			Storage:   "local",
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

// Load reads the INI file at path (skipped when empty) and applies
// environment overrides on top of it.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := cfg.mapINI(f); err != nil {
			return nil, fmt.Errorf("failed to map config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(ctx, &cfg.Env); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadBytes parses INI content directly; used for embedded or generated settings
func LoadBytes(data []byte) (*Config, error) {
	cfg := Default()
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.mapINI(f); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mapINI(f *ini.File) error {
	if err := f.Section("Station").MapTo(&c.Station); err != nil {
		return fmt.Errorf("section Station: %w", err)
	}
	if err := f.Section("Graphs").MapTo(&c.Graphs); err != nil {
		return fmt.Errorf("section Graphs: %w", err)
	}
	if err := f.Section("Paths").MapTo(&c.Paths); err != nil {
		return fmt.Errorf("section Paths: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if c.Env.OutputDir != "" {
		c.Paths.OutputDir = c.Env.OutputDir
	}
	if c.Env.NonIncremental {
		c.Graphs.NonIncremental = true
	}
}

var (
	tempUnits     = []string{"C", "F"}
	pressureUnits = []string{"hPa", "mb", "kPa", "inHg"}
	rainUnits     = []string{"mm", "in"}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}

// Validate checks the settings the compiler and the emitter depend on
func (c *Config) Validate() error {
	if !oneOf(c.Station.TempUnit, tempUnits) {
		return fmt.Errorf("invalid TempUnit %q, want one of %v", c.Station.TempUnit, tempUnits)
	}
	if !oneOf(c.Station.PressureUnit, pressureUnits) {
		return fmt.Errorf("invalid PressureUnit %q, want one of %v", c.Station.PressureUnit, pressureUnits)
	}
	if !oneOf(c.Station.RainUnit, rainUnits) {
		return fmt.Errorf("invalid RainUnit %q, want one of %v", c.Station.RainUnit, rainUnits)
	}
	if c.Station.LogInterval <= 0 {
		return fmt.Errorf("LogInterval must be positive, got %d", c.Station.LogInterval)
	}
	if c.Graphs.GraphHours <= 0 {
		return fmt.Errorf("GraphHours must be positive, got %d", c.Graphs.GraphHours)
	}
	if c.Graphs.DailyGraphDays <= 0 {
		return fmt.Errorf("DailyGraphDays must be positive, got %d", c.Graphs.DailyGraphDays)
	}
	switch c.Env.Storage {
	case "local":
	case "gcs":
		if c.Env.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when CHARTS_STORAGE=gcs")
		}
	default:
		return fmt.Errorf("unsupported CHARTS_STORAGE %q", c.Env.Storage)
	}
	return nil
}

// LogIntervalDuration returns the logging interval as a duration
func (c *Config) LogIntervalDuration() time.Duration {
	return time.Duration(c.Station.LogInterval) * time.Minute
}

// GraphWindow returns the configured recent-graph window
func (c *Config) GraphWindow() time.Duration {
	return time.Duration(c.Graphs.GraphHours) * time.Hour
}

// IsFahrenheit reports whether temperatures are in degrees Fahrenheit
func (c *Config) IsFahrenheit() bool {
	return strings.EqualFold(c.Station.TempUnit, "F")
}
