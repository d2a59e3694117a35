// Package config loads and validates engine and server settings.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Recognized solving algorithms. Anything else is a fatal configuration
// error raised before any session or model construction.
const (
	AlgorithmGreedy = "greedy"
	AlgorithmCPSAT  = "cpsat"
)

type Config struct {
	Algorithm string `mapstructure:"algorithm" validate:"required,oneof=greedy cpsat"`
	HTTPAddr  string `mapstructure:"http_addr" validate:"required"`

	GreedyMaxDepth  int           `mapstructure:"greedy_max_depth" validate:"min=0"`
	GreedyTimeLimit time.Duration `mapstructure:"greedy_time_limit" validate:"gt=0"`

	SolverBudget  time.Duration `mapstructure:"solver_budget" validate:"gt=0"`
	SolverWorkers int           `mapstructure:"solver_workers" validate:"min=1"`
	SolverGap     float64       `mapstructure:"solver_gap" validate:"min=0,max=1"`
}

// Default returns the settings the original deployment shipped with.
func Default() Config {
	return Config{
		Algorithm:       AlgorithmGreedy,
		HTTPAddr:        ":5000",
		GreedyMaxDepth:  4,
		GreedyTimeLimit: 60 * time.Second,
		SolverBudget:    300 * time.Second,
		SolverWorkers:   8,
		SolverGap:       0,
	}
}

// Load reads configuration from an optional config file and TTE_-prefixed
// environment variables, then validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults := Default()
	v.SetDefault("algorithm", defaults.Algorithm)
	v.SetDefault("http_addr", defaults.HTTPAddr)
	v.SetDefault("greedy_max_depth", defaults.GreedyMaxDepth)
	v.SetDefault("greedy_time_limit", defaults.GreedyTimeLimit)
	v.SetDefault("solver_budget", defaults.SolverBudget)
	v.SetDefault("solver_workers", defaults.SolverWorkers)
	v.SetDefault("solver_gap", defaults.SolverGap)

	v.SetEnvPrefix("TTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks a Config; an unrecognized algorithm is rejected here,
// before any work begins.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
