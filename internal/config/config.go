package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pathsim/internal/cv"
	"github.com/san-kum/pathsim/internal/extend"
	"github.com/san-kum/pathsim/internal/volume"
)

const (
	DefaultModel         = "doublewell"
	DefaultIntegrator    = "langevin"
	DefaultDt            = 0.01
	DefaultStepsPerFrame = 10
	DefaultMaxFrames     = 100000
	DefaultTemperature   = 0.2
	DefaultFriction      = 1.0
	DefaultPathLength    = 400
	DefaultSeedingTemp   = 0.5
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Model         string             `yaml:"model"`
	Integrator    string             `yaml:"integrator"`
	Dt            float64            `yaml:"dt"`
	StepsPerFrame int                `yaml:"steps_per_frame"`
	MaxFrames     int                `yaml:"max_frames"`
	Temperature   float64            `yaml:"temperature"`
	Friction      float64            `yaml:"friction"`
	Seed          int64              `yaml:"seed"`
	Params        map[string]float64 `yaml:"params,omitempty"`
	// InitState overrides the model's default starting point.
	InitState  []float64     `yaml:"init_state,omitempty"`
	States     []StateConfig `yaml:"states"`
	PathLength int           `yaml:"path_length"`
	Extend     ExtendConfig  `yaml:"extend"`
	Seeding    SeedingConfig `yaml:"seeding"`
}

// StateConfig is a stable state: CV in [Min, Max]. Setting both period
// bounds makes the range periodic.
type StateConfig struct {
	Name      string  `yaml:"name"`
	CV        string  `yaml:"cv"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	PeriodMin float64 `yaml:"period_min,omitempty"`
	PeriodMax float64 `yaml:"period_max,omitempty"`
}

type ExtendConfig struct {
	BaseLength     int           `yaml:"base_length"`
	Increment      int           `yaml:"increment"`
	MaxAttempts    int           `yaml:"max_attempts"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	Concurrent     bool          `yaml:"concurrent"`
}

// SeedingConfig drives the hot run that finds the initial transition.
type SeedingConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxFrames   int     `yaml:"max_frames"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:         DefaultModel,
		Integrator:    DefaultIntegrator,
		Dt:            DefaultDt,
		StepsPerFrame: DefaultStepsPerFrame,
		MaxFrames:     DefaultMaxFrames,
		Temperature:   DefaultTemperature,
		Friction:      DefaultFriction,
		States: []StateConfig{
			{Name: "A", CV: "x0", Min: math.Inf(-1), Max: -0.5},
			{Name: "B", CV: "x0", Min: 0.5, Max: math.Inf(1)},
		},
		PathLength: DefaultPathLength,
		Extend: ExtendConfig{
			BaseLength:  extend.DefaultBaseLength,
			Increment:   extend.DefaultIncrement,
			MaxAttempts: extend.DefaultMaxAttempts,
		},
		Seeding: SeedingConfig{
			Temperature: DefaultSeedingTemp,
			MaxFrames:   DefaultMaxFrames,
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
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be modified by flags safely.
func (c *Config) Clone() *Config {
	out := *c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	out.InitState = append([]float64(nil), c.InitState...)
	out.States = append([]StateConfig(nil), c.States...)
	return &out
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Model != "", "model is required")
	check(c.Dt > 0, "dt must be positive, got %g", c.Dt)
	check(c.StepsPerFrame > 0, "steps_per_frame must be positive, got %d", c.StepsPerFrame)
	check(c.MaxFrames >= 2, "max_frames must be at least 2, got %d", c.MaxFrames)
	check(c.Temperature >= 0, "temperature must not be negative, got %g", c.Temperature)
	check(c.Friction >= 0, "friction must not be negative, got %g", c.Friction)
	check(c.PathLength >= 2, "path_length must be at least 2, got %d", c.PathLength)
	check(len(c.States) >= 2, "need at least two states, got %d", len(c.States))
	check(c.Seeding.Temperature >= 0, "seeding temperature must not be negative, got %g", c.Seeding.Temperature)

	seen := make(map[string]bool)
	for i, s := range c.States {
		check(s.Name != "", "state %d has no name", i)
		check(!seen[s.Name], "duplicate state %q", s.Name)
		seen[s.Name] = true
		if _, err := s.Volume(); err != nil {
			errs = append(errs, fmt.Errorf("%w: state %q: %w", ErrInvalid, s.Name, err))
		}
	}

	ec := c.ExtenderConfig()
	if err := ec.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	} else {
		// a cap the engine truncates would stop the window from growing
		last := ec.MaxLen(ec.MaxAttempts - 1)
		check(c.MaxFrames >= last, "max_frames %d is below the last continuation cap %d", c.MaxFrames, last)
		check(c.Seeding.MaxFrames == 0 || c.Seeding.MaxFrames >= last,
			"seeding max_frames %d is below the last continuation cap %d", c.Seeding.MaxFrames, last)
	}
	return errors.Join(errs...)
}

// ExtenderConfig maps the extend section onto the extender's own config.
// The run seed also drives the extender.
func (c *Config) ExtenderConfig() extend.Config {
	return extend.Config{
		BaseLength:     c.Extend.BaseLength,
		Increment:      c.Extend.Increment,
		MaxAttempts:    c.Extend.MaxAttempts,
		AttemptTimeout: c.Extend.AttemptTimeout,
		Concurrent:     c.Extend.Concurrent,
		Seed:           c.Seed,
	}
}

func (s StateConfig) Volume() (volume.Volume, error) {
	return s.volume(nil)
}

// volume builds the state's range over a cached CV. States naming the same
// CV share one cache through cvs when it is non-nil.
func (s StateConfig) volume(cvs map[string]*cv.Cached) (volume.Volume, error) {
	name := s.CV
	if name == "" {
		name = "x0"
	}
	c, ok := cvs[name]
	if !ok {
		parsed, err := cv.Parse(name)
		if err != nil {
			return nil, err
		}
		if c, err = cv.NewCached(parsed, cv.DefaultCacheSize); err != nil {
			return nil, err
		}
		if cvs != nil {
			cvs[name] = c
		}
	}
	if s.PeriodMin != 0 || s.PeriodMax != 0 {
		p, err := volume.Periodic(c, s.Min, s.Max, s.PeriodMin, s.PeriodMax)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	if s.Min > s.Max {
		return nil, fmt.Errorf("min %g exceeds max %g", s.Min, s.Max)
	}
	return volume.Range(c, s.Min, s.Max), nil
}

// Volumes builds every state volume in declaration order.
func (c *Config) Volumes() ([]volume.Volume, error) {
	out := make([]volume.Volume, len(c.States))
	cvs := make(map[string]*cv.Cached)
	for i, s := range c.States {
		v, err := s.volume(cvs)
		if err != nil {
			return nil, fmt.Errorf("%w: state %q: %w", ErrInvalid, s.Name, err)
		}
		out[i] = v
	}
	return out, nil
}
