package main

import (
	"github.com/windstorm12/emergent-systems-lab/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the self-assembly mode weights the tuner searches.
// Defaults match the embedded configuration.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "seeking_target_force", Path: "assembly.seeking.target_force", Min: 0.2, Max: 3.0, Default: 1.0},
			{Name: "precision_target_force", Path: "assembly.precision.target_force", Min: 0.1, Max: 2.0, Default: 0.8},
			{Name: "seeking_damping", Path: "assembly.seeking.damping", Min: 0.7, Max: 0.99, Default: 0.95},
			{Name: "precision_damping", Path: "assembly.precision.damping", Min: 0.5, Max: 0.98, Default: 0.85},
			{Name: "precision_separation_scale", Path: "assembly.precision.separation_scale", Min: 0.0, Max: 4.0, Default: 2.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Assembly.Seeking.TargetForce = c[0]
	cfg.Assembly.Precision.TargetForce = c[1]
	cfg.Assembly.Seeking.Damping = c[2]
	cfg.Assembly.Precision.Damping = c[3]
	cfg.Assembly.Precision.SeparationScale = c[4]
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Assembly.Seeking.TargetForce,
		cfg.Assembly.Precision.TargetForce,
		cfg.Assembly.Seeking.Damping,
		cfg.Assembly.Precision.Damping,
		cfg.Assembly.Precision.SeparationScale,
	}
}
