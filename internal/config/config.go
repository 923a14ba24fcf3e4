// Package config loads run settings from an optional config file and
// LSORBITS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/litescript/ls-orbits/internal/logging"
)

// EnvPrefix is prepended to every environment override, e.g. LSORBITS_WORKERS.
const EnvPrefix = "LSORBITS"

// Unset marks an integer body or system selection that was not given.
const Unset = -1

// Config holds the run settings.
type Config struct {
	LogLevel    string
	Workers     int
	Theta       float64
	SimStep     time.Duration
	SimDuration time.Duration
	MetricsAddr string
	System      int
	Center      int
	Barycentric bool
	States      string
	HorizonsDir string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		Workers:     runtime.NumCPU(),
		Theta:       0.5,
		SimStep:     time.Minute,
		SimDuration: 0,
		System:      Unset,
		Center:      Unset,
	}
}

// Load reads settings. path names a config file (any format viper
// understands, chosen by extension); when empty, LSORBITS_CONFIG is
// consulted, and with neither only defaults and the environment apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := Config{
		LogLevel:    v.GetString("log_level"),
		Workers:     v.GetInt("workers"),
		Theta:       v.GetFloat64("theta"),
		SimStep:     v.GetDuration("sim.step"),
		SimDuration: v.GetDuration("sim.duration"),
		MetricsAddr: v.GetString("metrics_addr"),
		System:      v.GetInt("system"),
		Center:      v.GetInt("center"),
		Barycentric: v.GetBool("barycentric"),
		States:      v.GetString("states"),
		HorizonsDir: v.GetString("horizons_dir"),
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("theta", d.Theta)
	v.SetDefault("sim.step", d.SimStep)
	v.SetDefault("sim.duration", d.SimDuration)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("system", d.System)
	v.SetDefault("center", d.Center)
	v.SetDefault("barycentric", d.Barycentric)
	v.SetDefault("states", d.States)
	v.SetDefault("horizons_dir", d.HorizonsDir)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.LookupLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Theta < 0 {
		errs = append(errs, fmt.Errorf("theta must be non-negative, got %v", c.Theta))
	}
	if c.SimDuration < 0 {
		errs = append(errs, fmt.Errorf("sim.duration must be non-negative, got %v", c.SimDuration))
	}
	if c.SimDuration > 0 && c.SimStep <= 0 {
		errs = append(errs, fmt.Errorf("sim.step must be positive, got %v", c.SimStep))
	}
	if c.Barycentric && c.System == Unset {
		errs = append(errs, errors.New("barycentric requires a system"))
	}
	if c.Barycentric && c.Center != Unset {
		errs = append(errs, errors.New("barycentric and center are mutually exclusive"))
	}
	if c.States != "" && c.HorizonsDir != "" {
		errs = append(errs, errors.New("states and horizons_dir are mutually exclusive"))
	}
	return errors.Join(errs...)
}

// Simulate reports whether states should be propagated before solving.
func (c Config) Simulate() bool {
	return c.SimDuration > 0
}
