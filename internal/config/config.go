package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/edp1096/toy-powerflow/internal/consts"
)

// Config holds solver and model defaults.
type Config struct {
	MaxBuses      int     `yaml:"max_buses"`
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
	Formulation   string  `yaml:"formulation"` // full or reduced
	Backend       string  `yaml:"backend"`     // sparse or dense
	LogLevel      string  `yaml:"log_level"`
	LogFormat     string  `yaml:"log_format"`
}

var ErrInvalidConfig = errors.New("invalid configuration")

func Default() Config {
	return Config{
		MaxBuses:      consts.MaxBuses,
		MaxIterations: consts.DefaultMaxIterations,
		Tolerance:     consts.DefaultTolerance,
		Formulation:   "full",
		Backend:       "sparse",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load starts from Default, overlays the YAML file at path (skipped when path
// is empty) and then the POWERFLOW_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	var err error
	if cfg.MaxBuses, err = getEnvInt("POWERFLOW_MAX_BUSES", cfg.MaxBuses); err != nil {
		return Config{}, err
	}
	if cfg.MaxIterations, err = getEnvInt("POWERFLOW_MAX_ITERATIONS", cfg.MaxIterations); err != nil {
		return Config{}, err
	}
	if cfg.Tolerance, err = getEnvFloat("POWERFLOW_TOLERANCE", cfg.Tolerance); err != nil {
		return Config{}, err
	}
	cfg.Formulation = getEnv("POWERFLOW_FORMULATION", cfg.Formulation)
	cfg.Backend = getEnv("POWERFLOW_BACKEND", cfg.Backend)
	cfg.LogLevel = getEnv("POWERFLOW_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("POWERFLOW_LOG_FORMAT", cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MaxBuses < 1 || c.MaxBuses > consts.MaxBuses {
		return fmt.Errorf("%w: max_buses %d outside 1..%d", ErrInvalidConfig, c.MaxBuses, consts.MaxBuses)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max_iterations %d", ErrInvalidConfig, c.MaxIterations)
	}
	if !(c.Tolerance > 0) {
		return fmt.Errorf("%w: tolerance %g", ErrInvalidConfig, c.Tolerance)
	}
	switch c.Formulation {
	case "full", "reduced":
	default:
		return fmt.Errorf("%w: formulation %q", ErrInvalidConfig, c.Formulation)
	}
	switch c.Backend {
	case "sparse", "dense":
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalidConfig, c.Backend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, value)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, value)
	}
	return f, nil
}
