// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Field     FieldConfig     `yaml:"field"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Scenario  ScenarioConfig  `yaml:"scenario"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// FieldConfig holds the gravity field grid and solver parameters.
type FieldConfig struct {
	Width              int     `yaml:"width"`               // Grid columns (> 2)
	Height             int     `yaml:"height"`              // Grid rows (> 2)
	CellSize           float64 `yaml:"cell_size"`           // World units per cell
	Overcorrection     float64 `yaml:"overcorrection"`      // Relaxation multiplier (> 0, > 1 over-relaxes)
	InitialSmoothing   int     `yaml:"initial_smoothing"`   // Sweeps run once at construction
	SweepsPerTick      int     `yaml:"sweeps_per_tick"`     // Sweeps run every tick
	DownwardAttraction bool    `yaml:"downward_attraction"` // Pin top row to 0 and bottom row to 1
}

// PhysicsConfig holds drifter integration parameters.
type PhysicsConfig struct {
	DT         float64 `yaml:"dt"`
	Gain       float64 `yaml:"gain"`       // Gradient to acceleration multiplier
	Damping    float64 `yaml:"damping"`    // Fraction of velocity kept per second
	Iterations int     `yaml:"iterations"` // Physics solver iterations
	BodyRadius float64 `yaml:"body_radius"`
	BodyMass   float64 `yaml:"body_mass"`
	WallBounce float64 `yaml:"wall_bounce"` // Velocity kept (reversed) on hitting a wall
}

// AttractorConfig places a fixed attractor in world units.
type AttractorConfig struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Strength float64 `yaml:"strength"`
}

// ScenarioConfig holds the initial population of the simulation.
type ScenarioConfig struct {
	Seed           int64             `yaml:"seed"`            // 0 = time-based
	Drifters       int               `yaml:"drifters"`        // Bodies that fall through the field
	Attractors     []AttractorConfig `yaml:"attractors"`      // Fixed sources
	Wanderers      int               `yaml:"wanderers"`       // Sources that drift sideways on noise
	WanderStrength float64           `yaml:"wander_strength"` // Source strength of each wanderer
	WanderSpeed    float64           `yaml:"wander_speed"`    // Noise time scale per second
	Script         string            `yaml:"script"`          // Optional tengo script path
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Ticks between field stats records
	PerfWindow  int `yaml:"perf_window"`  // Ticks averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32       float32 // Physics.DT as float32
	CellSize32 float32 // Field.CellSize as float32
	WorldW32   float32 // Field.Width * Field.CellSize
	WorldH32   float32 // Field.Height * Field.CellSize
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()
	return cfg, nil
}

// Validate checks the values the solver and integrator treat as preconditions.
func (c *Config) Validate() error {
	var errs []error
	if c.Field.Width <= 2 || c.Field.Height <= 2 {
		errs = append(errs, fmt.Errorf("field: grid must be larger than 2x2, got %dx%d", c.Field.Width, c.Field.Height))
	}
	if !(c.Field.CellSize > 0) {
		errs = append(errs, fmt.Errorf("field: cell_size must be positive, got %v", c.Field.CellSize))
	}
	if !(c.Field.Overcorrection > 0) {
		errs = append(errs, fmt.Errorf("field: overcorrection must be positive, got %v", c.Field.Overcorrection))
	}
	if c.Field.InitialSmoothing < 0 || c.Field.SweepsPerTick < 0 {
		errs = append(errs, fmt.Errorf("field: sweep counts must not be negative"))
	}
	if !(c.Physics.DT > 0) {
		errs = append(errs, fmt.Errorf("physics: dt must be positive, got %v", c.Physics.DT))
	}
	if c.Physics.BodyMass < 0 || c.Physics.BodyRadius < 0 {
		errs = append(errs, fmt.Errorf("physics: body mass and radius must not be negative"))
	}
	if c.Scenario.Drifters < 0 || c.Scenario.Wanderers < 0 {
		errs = append(errs, fmt.Errorf("scenario: counts must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.CellSize32 = float32(c.Field.CellSize)
	c.Derived.WorldW32 = float32(float64(c.Field.Width) * c.Field.CellSize)
	c.Derived.WorldH32 = float32(float64(c.Field.Height) * c.Field.CellSize)

	if c.Physics.Iterations <= 0 {
		c.Physics.Iterations = 10
	}
	if c.Physics.BodyMass == 0 {
		c.Physics.BodyMass = 1
	}
	if c.Telemetry.StatsWindow <= 0 {
		c.Telemetry.StatsWindow = 60
	}
	if c.Telemetry.PerfWindow <= 0 {
		c.Telemetry.PerfWindow = 60
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
