// Package config loads tessera's YAML configuration.
//
// A file only needs the keys it wants to change; everything else keeps
// the value from Default. Loaded configs are validated with struct tags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/tessera/pkg/catalog"
	"github.com/chazu/tessera/pkg/grid"
	"github.com/chazu/tessera/pkg/logging"
	"github.com/chazu/tessera/pkg/runner"
	"github.com/chazu/tessera/pkg/solver"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full run configuration.
type Config struct {
	Grid    grid.Dims      `yaml:"grid"`
	Solver  Solver         `yaml:"solver"`
	Run     runner.Limits  `yaml:"run"`
	Catalog Catalog        `yaml:"catalog"`
	Log     logging.Config `yaml:"log"`
}

// Solver holds the random source and zoning settings.
type Solver struct {
	// Seed fixes the random source. Nil picks a fresh seed per run.
	Seed      *uint64 `yaml:"seed,omitempty"`
	JitterMin float64 `yaml:"jitter_min" validate:"gte=0"`
	JitterMax float64 `yaml:"jitter_max" validate:"gtefield=JitterMin"`
	Zones     string  `yaml:"zones" validate:"oneof=default open"`
}

// Catalog says where tile definitions come from and how finely shapes
// are meshed.
type Catalog struct {
	Path   string `yaml:"path"`
	Detail int    `yaml:"detail" validate:"gte=1,lte=4"`
}

// ZoneFunc returns the grid zoning selected by Zones. "open" allows every
// category everywhere.
func (s Solver) ZoneFunc() grid.ZoneFunc {
	if s.Zones == "open" {
		return grid.Uniform(catalog.AllCategories)
	}
	return grid.DefaultZones
}

// Options converts the solver settings to solver options.
func (s Solver) Options() []solver.Option {
	opts := []solver.Option{solver.WithJitter(s.JitterMin, s.JitterMax)}
	if s.Seed != nil {
		opts = append(opts, solver.WithSeed(*s.Seed))
	}
	return opts
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Grid: grid.Dims{Width: 8, Height: 4, Depth: 8},
		Solver: Solver{
			JitterMin: solver.DefaultJitterMin,
			JitterMax: solver.DefaultJitterMax,
			Zones:     "default",
		},
		Run: runner.Limits{
			MaxSteps:    100000,
			MaxRestarts: 50,
		},
		Catalog: Catalog{Detail: 2},
		Log:     logging.Config{Level: "info", Format: "text"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path. An empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Marshal encodes cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return data, nil
}
