package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rotcurve/internal/dataset"
	"github.com/san-kum/rotcurve/internal/optim"
	"github.com/san-kum/rotcurve/internal/potential"
	"github.com/san-kum/rotcurve/internal/rotation"
	"github.com/san-kum/rotcurve/internal/units"
)

const (
	DefaultMinKpc      = 0.1
	DefaultMaxKpc      = 50.0
	DefaultPoints      = 500
	DefaultMass        = 1.5e12
	DefaultScaleRadius = 10.0
	DefaultDensity     = 1e7
	DefaultDiskDensity = 800.0
	DefaultDispersion  = 150.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Grid   GridConfig       `yaml:"grid"`
	Method string           `yaml:"method"`
	Models []potential.Spec `yaml:"models"`
	Fit    FitConfig        `yaml:"fit"`
}

type GridConfig struct {
	MinKpc float64 `yaml:"min_kpc"`
	MaxKpc float64 `yaml:"max_kpc"`
	Points int     `yaml:"points"`
}

type FitConfig struct {
	Family         string        `yaml:"family"`
	Data           string        `yaml:"data"`
	SkipRows       int           `yaml:"skip_rows"`
	Policy         string        `yaml:"sigma_policy"`
	Guess          []float64     `yaml:"guess,omitempty"`
	MaxIterations  int           `yaml:"max_iterations"`
	MaxEvaluations int           `yaml:"max_evaluations"`
	Timeout        time.Duration `yaml:"timeout"`
	Tolerance      float64       `yaml:"tolerance"`
}

func haloSpecs(a, mass float64) []potential.Spec {
	specs := make([]potential.Spec, 0, 4)
	for _, f := range potential.HaloProfiles() {
		specs = append(specs, potential.Spec{Family: f, ScaleRadius: a, Mass: mass})
	}
	return specs
}

func DefaultConfig() *Config {
	s := optim.DefaultSettings()
	return &Config{
		Grid: GridConfig{
			MinKpc: DefaultMinKpc,
			MaxKpc: DefaultMaxKpc,
			Points: DefaultPoints,
		},
		Method: rotation.Auto.String(),
		Models: haloSpecs(DefaultScaleRadius, DefaultMass),
		Fit: FitConfig{
			Family:         "nfw",
			SkipRows:       dataset.DefaultSkipRows,
			Policy:         string(dataset.DefaultPolicy),
			MaxIterations:  s.MaxIterations,
			MaxEvaluations: s.MaxEvaluations,
			Timeout:        s.Timeout,
			Tolerance:      s.Tolerance,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if !(c.Grid.MinKpc > 0) {
		return fmt.Errorf("%w: grid.min_kpc must be positive, got %g", ErrInvalidConfig, c.Grid.MinKpc)
	}
	if !(c.Grid.MaxKpc > c.Grid.MinKpc) {
		return fmt.Errorf("%w: grid.max_kpc must exceed min_kpc", ErrInvalidConfig)
	}
	if c.Grid.Points < 2 {
		return fmt.Errorf("%w: grid.points must be at least 2, got %d", ErrInvalidConfig, c.Grid.Points)
	}
	if _, err := c.RotationMethod(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for i, m := range c.Models {
		if _, err := potential.ParseFamily(string(m.Family)); err != nil {
			return fmt.Errorf("%w: models[%d]: %v", ErrInvalidConfig, i, err)
		}
	}
	if _, err := c.SigmaPolicy(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Fit.SkipRows < 0 {
		return fmt.Errorf("%w: fit.skip_rows must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Specs returns the configured models with normalized family names.
func (c *Config) Specs() []potential.Spec {
	out := make([]potential.Spec, 0, len(c.Models))
	for _, m := range c.Models {
		if f, err := potential.ParseFamily(string(m.Family)); err == nil {
			m.Family = f
		}
		out = append(out, m)
	}
	return out
}

func (c *Config) BuildGrid(sys units.System) (potential.Grid, error) {
	return potential.LinearGrid(sys, c.Grid.MinKpc, c.Grid.MaxKpc, c.Grid.Points)
}

func (c *Config) RotationMethod() (rotation.Method, error) {
	if c.Method == "" {
		return rotation.Auto, nil
	}
	return rotation.ParseMethod(c.Method)
}

func (c *Config) SigmaPolicy() (dataset.SigmaPolicy, error) {
	return dataset.ParsePolicy(c.Fit.Policy)
}

// OptimSettings overlays the configured budgets on the optimizer defaults.
func (c *Config) OptimSettings() optim.Settings {
	s := optim.DefaultSettings()
	if c.Fit.MaxIterations > 0 {
		s.MaxIterations = c.Fit.MaxIterations
	}
	if c.Fit.MaxEvaluations > 0 {
		s.MaxEvaluations = c.Fit.MaxEvaluations
	}
	if c.Fit.Timeout > 0 {
		s.Timeout = c.Fit.Timeout
	}
	if c.Fit.Tolerance > 0 {
		s.Tolerance = c.Fit.Tolerance
	}
	return s
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Models = append([]potential.Spec(nil), c.Models...)
	cp.Fit.Guess = append([]float64(nil), c.Fit.Guess...)
	return &cp
}
