package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ==================== CONFIGURATION STRUCTURES ====================
type ZeroConfig struct {
	Count               int     `json:"count" yaml:"count" mapstructure:"count"`
	Digits              int     `json:"digits" yaml:"digits" mapstructure:"digits"`
	Algorithm           string  `json:"algorithm" yaml:"algorithm" mapstructure:"algorithm"`
	ScanStart           float64 `json:"scan_start" yaml:"scan_start" mapstructure:"scan_start"`
	ScanDivisions       int     `json:"scan_divisions" yaml:"scan_divisions" mapstructure:"scan_divisions"`
	LehmerThreshold     float64 `json:"lehmer_threshold" yaml:"lehmer_threshold" mapstructure:"lehmer_threshold"`
	MaxNewtonIterations int     `json:"max_newton_iterations" yaml:"max_newton_iterations" mapstructure:"max_newton_iterations"`
}

type OptimizerConfig struct {
	Lower           float64 `json:"lower" yaml:"lower" mapstructure:"lower"`
	Upper           float64 `json:"upper" yaml:"upper" mapstructure:"upper"`
	Target          float64 `json:"target" yaml:"target" mapstructure:"target"`
	XAtol           float64 `json:"xatol" yaml:"xatol" mapstructure:"xatol"`
	MaxEvaluations  int     `json:"max_evaluations" yaml:"max_evaluations" mapstructure:"max_evaluations"`
	LandscapePoints int     `json:"landscape_points" yaml:"landscape_points" mapstructure:"landscape_points"`
}

type OutputConfig struct {
	OutputDirectory string `json:"output_directory" yaml:"output_directory" mapstructure:"output_directory"`
	FilenamePrefix  string `json:"filename_prefix" yaml:"filename_prefix" mapstructure:"filename_prefix"`
	Plot            bool   `json:"plot" yaml:"plot" mapstructure:"plot"`
	Summary         bool   `json:"summary" yaml:"summary" mapstructure:"summary"`
	Verbose         bool   `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
	LogLevel        string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

type PerformanceConfig struct {
	MaxWorkers int `json:"max_workers" yaml:"max_workers" mapstructure:"max_workers"`
}

type Config struct {
	Zeros       ZeroConfig        `json:"zeros" yaml:"zeros" mapstructure:"zeros"`
	Phase       PhaseParams       `json:"phase" yaml:"phase" mapstructure:"phase"`
	Optimizer   OptimizerConfig   `json:"optimizer" yaml:"optimizer" mapstructure:"optimizer"`
	Output      OutputConfig      `json:"output" yaml:"output" mapstructure:"output"`
	Performance PerformanceConfig `json:"performance" yaml:"performance" mapstructure:"performance"`

	// Internal fields
	loadedFrom string
}

// ==================== CONFIGURATION MANAGEMENT ====================
func setDefaults(v *viper.Viper) {
	// Zero source defaults
	v.SetDefault("zeros.count", 200)
	v.SetDefault("zeros.digits", 50)
	v.SetDefault("zeros.algorithm", "auto")
	v.SetDefault("zeros.scan_start", 10.0)
	v.SetDefault("zeros.scan_divisions", 16)
	v.SetDefault("zeros.lehmer_threshold", 0.05)
	v.SetDefault("zeros.max_newton_iterations", 20)

	// Phase defaults
	v.SetDefault("phase.c", 1.0)
	v.SetDefault("phase.scale_factor", 4/math.Pi)
	v.SetDefault("phase.reg", 0.01)

	// Optimizer defaults
	v.SetDefault("optimizer.lower", 0.5)
	v.SetDefault("optimizer.upper", 2.0)
	v.SetDefault("optimizer.target", 0.5)
	v.SetDefault("optimizer.xatol", 1e-5)
	v.SetDefault("optimizer.max_evaluations", 500)
	v.SetDefault("optimizer.landscape_points", 61)

	// Output defaults
	v.SetDefault("output.output_directory", ".")
	v.SetDefault("output.filename_prefix", "structural")
	v.SetDefault("output.plot", true)
	v.SetDefault("output.summary", false)
	v.SetDefault("output.verbose", false)
	v.SetDefault("output.log_level", "info")

	// Performance defaults
	v.SetDefault("performance.max_workers", 0) // 0 = auto
}

// newConfigViper returns a viper instance with defaults and environment
// lookup (STRUCTURAL_ZEROS_COUNT, STRUCTURAL_OUTPUT_PLOT, ...).
func newConfigViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("STRUCTURAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfigFromFile reads the YAML file at path on top of the defaults.
// An empty path loads defaults, environment and bound flags only.
func loadConfigFromFile(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	calculateDynamicValues(&cfg)
	cfg.loadedFrom = v.ConfigFileUsed()

	return &cfg, nil
}

// loadConfig resolves the config file: an explicit path must exist, the
// default path is optional.
func loadConfig(v *viper.Viper, path string, explicit bool) (*Config, error) {
	if path != "" && !explicit {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	return loadConfigFromFile(v, path)
}

func validateConfig(cfg *Config) error {
	if cfg.Zeros.Count <= 0 {
		return fmt.Errorf("%w: zeros.count=%d", ErrInvalidCount, cfg.Zeros.Count)
	}
	if cfg.Zeros.Digits < 16 {
		return fmt.Errorf("zeros.digits must be at least 16")
	}
	switch cfg.Zeros.Algorithm {
	case "auto", "euler-maclaurin", "riemann-siegel":
	default:
		return fmt.Errorf("unknown zeros.algorithm %q (auto, euler-maclaurin, riemann-siegel)", cfg.Zeros.Algorithm)
	}
	if cfg.Zeros.ScanStart <= 0 || cfg.Zeros.ScanStart >= 14 {
		return fmt.Errorf("zeros.scan_start must lie in (0, 14) to precede the first zero")
	}
	if cfg.Zeros.ScanDivisions < 4 {
		return fmt.Errorf("zeros.scan_divisions must be at least 4")
	}
	if cfg.Zeros.LehmerThreshold < 0 {
		return fmt.Errorf("zeros.lehmer_threshold cannot be negative")
	}
	if cfg.Zeros.MaxNewtonIterations < 1 {
		return fmt.Errorf("zeros.max_newton_iterations must be positive")
	}

	if cfg.Phase.Reg <= 0 {
		return fmt.Errorf("phase.reg must be positive")
	}
	if cfg.Phase.ScaleFactor <= 0 {
		return fmt.Errorf("phase.scale_factor must be positive")
	}

	if !(cfg.Optimizer.Lower < cfg.Optimizer.Upper) {
		return fmt.Errorf("%w: optimizer bounds [%g, %g]", ErrInvalidBounds, cfg.Optimizer.Lower, cfg.Optimizer.Upper)
	}
	if cfg.Optimizer.XAtol <= 0 {
		return fmt.Errorf("optimizer.xatol must be positive")
	}
	if cfg.Optimizer.MaxEvaluations < 1 {
		return fmt.Errorf("optimizer.max_evaluations must be positive")
	}
	if cfg.Optimizer.LandscapePoints < 0 {
		return fmt.Errorf("optimizer.landscape_points cannot be negative")
	}

	if cfg.Performance.MaxWorkers < 0 {
		return fmt.Errorf("max_workers cannot be negative")
	}

	return nil
}

func calculateDynamicValues(cfg *Config) {
	// Calculate max workers if auto
	if cfg.Performance.MaxWorkers <= 0 {
		cfg.Performance.MaxWorkers = runtime.NumCPU()

		// Apply limits
		if cfg.Performance.MaxWorkers > 32 {
			cfg.Performance.MaxWorkers = 32
		}
	}

	if cfg.Output.FilenamePrefix == "" {
		cfg.Output.FilenamePrefix = "structural"
	}
	if cfg.Output.Verbose {
		cfg.Output.LogLevel = "debug"
	}
}

func createDefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		// defaults are static; failing here is a programming error
		panic(fmt.Sprintf("default config does not unmarshal: %v", err))
	}
	return cfg
}

func saveDefaultConfig(path string, cfg *Config) error {
	// Create directory if needed
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := `# Structural Mapping Configuration v` + Version + `
# Generated on ` + time.Now().Format("2006-01-02 15:04:05") + `
# Every key can be overridden with STRUCTURAL_<SECTION>_<KEY>.

`

	return os.WriteFile(path, []byte(header+string(data)), 0644)
}
