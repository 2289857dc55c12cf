// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Variant names.
const (
	VariantFlocking = "flocking"
	VariantAssembly = "assembly"
)

// Update discipline names.
const (
	DisciplineSemiSynchronous = "semi_synchronous"
	DisciplineSynchronous     = "synchronous"
)

// Neighbor index names.
const (
	IndexNaive = "naive"
	IndexGrid  = "grid"
)

// Target layout shapes.
const (
	LayoutCircle = "circle"
	LayoutGrid   = "grid"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen" toml:"screen"`
	Run       RunConfig       `yaml:"run" toml:"run"`
	Flocking  FlockingConfig  `yaml:"flocking" toml:"flocking"`
	Assembly  AssemblyConfig  `yaml:"assembly" toml:"assembly"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-" toml:"-"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width" toml:"width"`
	Height    int `yaml:"height" toml:"height"`
	TargetFPS int `yaml:"target_fps" toml:"target_fps"`
}

// RunConfig selects the variant and how a tick is executed.
type RunConfig struct {
	Variant       string  `yaml:"variant" toml:"variant"`               // flocking | assembly
	Seed          int64   `yaml:"seed" toml:"seed"`                     // 0 = time-based (CLI decides)
	Discipline    string  `yaml:"discipline" toml:"discipline"`         // semi_synchronous | synchronous
	NeighborIndex string  `yaml:"neighbor_index" toml:"neighbor_index"` // naive | grid
	GridCellSize  float64 `yaml:"grid_cell_size" toml:"grid_cell_size"` // 0 = largest query radius
	Workers       int     `yaml:"workers" toml:"workers"`               // synchronous only; 0 = GOMAXPROCS, 1 = serial
}

// FlockingConfig holds boids parameters.
type FlockingConfig struct {
	Width            float64 `yaml:"width" toml:"width"`
	Height           float64 `yaml:"height" toml:"height"`
	Count            int     `yaml:"count" toml:"count"`
	Ticks            int     `yaml:"ticks" toml:"ticks"`
	PerceptionRadius float64 `yaml:"perception_radius" toml:"perception_radius"`
	SeparationWeight float64 `yaml:"separation_weight" toml:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight" toml:"alignment_weight"`
	CohesionWeight   float64 `yaml:"cohesion_weight" toml:"cohesion_weight"`
	CohesionScale    float64 `yaml:"cohesion_scale" toml:"cohesion_scale"` // positional offsets are large vs velocities
	MaxSpeed         float64 `yaml:"max_speed" toml:"max_speed"`
	InitialSpeed     float64 `yaml:"initial_speed" toml:"initial_speed"` // per-component uniform range at spawn
}

// RectConfig is an axis-aligned rectangle.
type RectConfig struct {
	MinX float64 `yaml:"min_x" toml:"min_x"`
	MaxX float64 `yaml:"max_x" toml:"max_x"`
	MinY float64 `yaml:"min_y" toml:"min_y"`
	MaxY float64 `yaml:"max_y" toml:"max_y"`
}

// LayoutConfig describes the target formation.
type LayoutConfig struct {
	Shape   string  `yaml:"shape" toml:"shape"` // circle | grid
	CenterX float64 `yaml:"center_x" toml:"center_x"`
	CenterY float64 `yaml:"center_y" toml:"center_y"`
	Radius  float64 `yaml:"radius" toml:"radius"`   // circle
	Spacing float64 `yaml:"spacing" toml:"spacing"` // grid
}

// ModeConfig holds the per-mode force weights of a self-assembly agent.
type ModeConfig struct {
	TargetForce     float64 `yaml:"target_force" toml:"target_force"`
	SeparationScale float64 `yaml:"separation_scale" toml:"separation_scale"`
	Damping         float64 `yaml:"damping" toml:"damping"`
	MaxSpeed        float64 `yaml:"max_speed" toml:"max_speed"`
	ApproachGain    float64 `yaml:"approach_gain" toml:"approach_gain"` // >0 caps speed at gain*dist_to_target
}

// AssemblyConfig holds self-assembly parameters.
type AssemblyConfig struct {
	Count              int          `yaml:"count" toml:"count"`
	MaxTicks           int          `yaml:"max_ticks" toml:"max_ticks"`
	Bounds             RectConfig   `yaml:"bounds" toml:"bounds"`
	Spawn              RectConfig   `yaml:"spawn" toml:"spawn"`
	Layout             LayoutConfig `yaml:"layout" toml:"layout"`
	LockThreshold      float64      `yaml:"lock_threshold" toml:"lock_threshold"`
	PrecisionThreshold float64      `yaml:"precision_threshold" toml:"precision_threshold"`
	SeparationRadius   float64      `yaml:"separation_radius" toml:"separation_radius"`
	Seeking            ModeConfig   `yaml:"seeking" toml:"seeking"`
	Precision          ModeConfig   `yaml:"precision" toml:"precision"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow           int     `yaml:"stats_window" toml:"stats_window"` // ticks per stats window
	PerfCollectorWindow   int     `yaml:"perf_collector_window" toml:"perf_collector_window"`
	PolarizationMilestone float64 `yaml:"polarization_milestone" toml:"polarization_milestone"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MaxQueryRadius float64 // largest neighbor radius of the active variant
	CellSize       float64 // effective spatial grid cell size
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

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML or TOML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Decode into same struct - only overwrites fields present in file
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing toml config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Validate reports configuration values no run could work with.
func (c *Config) Validate() error {
	switch c.Run.Variant {
	case VariantFlocking, VariantAssembly:
	default:
		return fmt.Errorf("run.variant: unknown variant %q", c.Run.Variant)
	}
	switch c.Run.Discipline {
	case DisciplineSemiSynchronous, DisciplineSynchronous:
	default:
		return fmt.Errorf("run.discipline: unknown discipline %q", c.Run.Discipline)
	}
	switch c.Run.NeighborIndex {
	case IndexNaive, IndexGrid:
	default:
		return fmt.Errorf("run.neighbor_index: unknown index %q", c.Run.NeighborIndex)
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("run.workers: must be >= 0, got %d", c.Run.Workers)
	}

	f := &c.Flocking
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("flocking: extent must be positive, got %vx%v", f.Width, f.Height)
	}
	if f.Count < 0 || f.Ticks < 0 {
		return fmt.Errorf("flocking: count and ticks must be >= 0")
	}
	if f.PerceptionRadius <= 0 || f.MaxSpeed <= 0 {
		return fmt.Errorf("flocking: perception_radius and max_speed must be positive")
	}

	a := &c.Assembly
	if a.Count < 0 || a.MaxTicks < 0 {
		return fmt.Errorf("assembly: count and max_ticks must be >= 0")
	}
	if err := a.Bounds.validate("assembly.bounds"); err != nil {
		return err
	}
	if err := a.Spawn.validate("assembly.spawn"); err != nil {
		return err
	}
	if a.LockThreshold <= 0 || a.PrecisionThreshold <= a.LockThreshold {
		return fmt.Errorf("assembly: need 0 < lock_threshold (%v) < precision_threshold (%v)",
			a.LockThreshold, a.PrecisionThreshold)
	}
	if a.SeparationRadius <= 0 {
		return fmt.Errorf("assembly.separation_radius: must be positive")
	}
	for name, m := range map[string]ModeConfig{"seeking": a.Seeking, "precision": a.Precision} {
		if m.MaxSpeed <= 0 {
			return fmt.Errorf("assembly.%s.max_speed: must be positive", name)
		}
		if m.Damping <= 0 || m.Damping > 1 {
			return fmt.Errorf("assembly.%s.damping: must be in (0, 1], got %v", name, m.Damping)
		}
		if m.ApproachGain < 0 {
			return fmt.Errorf("assembly.%s.approach_gain: must be >= 0", name)
		}
	}
	switch a.Layout.Shape {
	case LayoutCircle:
		if a.Layout.Radius < 0 {
			return fmt.Errorf("assembly.layout.radius: must be >= 0")
		}
	case LayoutGrid:
		if a.Layout.Spacing <= 0 {
			return fmt.Errorf("assembly.layout.spacing: must be positive")
		}
	default:
		return fmt.Errorf("assembly.layout.shape: unknown shape %q", a.Layout.Shape)
	}
	return nil
}

func (r RectConfig) validate(name string) error {
	if r.MinX >= r.MaxX || r.MinY >= r.MaxY {
		return fmt.Errorf("%s: empty rectangle [%v,%v]x[%v,%v]", name, r.MinX, r.MaxX, r.MinY, r.MaxY)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Run.Variant == VariantFlocking {
		c.Derived.MaxQueryRadius = c.Flocking.PerceptionRadius
	} else {
		c.Derived.MaxQueryRadius = c.Assembly.SeparationRadius
	}
	c.Derived.CellSize = c.Run.GridCellSize
	if c.Derived.CellSize <= 0 {
		c.Derived.CellSize = c.Derived.MaxQueryRadius
	}
}

// Refresh recomputes derived values after fields were changed programmatically.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
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
