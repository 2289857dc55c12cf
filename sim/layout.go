package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/windstorm12/emergent-systems-lab/config"
)

// CircleLayout places n targets evenly on a circle, starting at angle 0 and
// going counter-clockwise.
func CircleLayout(n int, center r2.Vec, radius float64) []r2.Vec {
	out := make([]r2.Vec, n)
	for i := range out {
		angle := float64(i) / float64(n) * 2 * math.Pi
		out[i] = r2.Vec{
			X: center.X + math.Cos(angle)*radius,
			Y: center.Y + math.Sin(angle)*radius,
		}
	}
	return out
}

// GridLayout places n targets row-major on a square-ish lattice centered on
// center. The last row may be partial.
func GridLayout(n int, center r2.Vec, spacing float64) []r2.Vec {
	if n == 0 {
		return nil
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols

	origin := r2.Vec{
		X: center.X - float64(cols-1)*spacing/2,
		Y: center.Y - float64(rows-1)*spacing/2,
	}

	out := make([]r2.Vec, n)
	for i := range out {
		col := i % cols
		row := i / cols
		out[i] = r2.Vec{
			X: origin.X + float64(col)*spacing,
			Y: origin.Y + float64(row)*spacing,
		}
	}
	return out
}

// TargetLayout builds the configured formation for n agents.
func TargetLayout(cfg config.LayoutConfig, n int) ([]r2.Vec, error) {
	center := r2.Vec{X: cfg.CenterX, Y: cfg.CenterY}
	switch cfg.Shape {
	case config.LayoutCircle:
		return CircleLayout(n, center, cfg.Radius), nil
	case config.LayoutGrid:
		return GridLayout(n, center, cfg.Spacing), nil
	default:
		return nil, fmt.Errorf("unknown layout shape %q", cfg.Shape)
	}
}

// spawnSpecs draws random initial states for the configured variant.
func (w *World) spawnSpecs() ([]AgentSpec, error) {
	if !w.isAssembly() {
		f := w.cfg.Flocking
		specs := make([]AgentSpec, f.Count)
		for i := range specs {
			specs[i] = AgentSpec{
				Pos: r2.Vec{X: w.rng.Float64() * f.Width, Y: w.rng.Float64() * f.Height},
				Vel: r2.Vec{X: w.uniform(-f.InitialSpeed, f.InitialSpeed), Y: w.uniform(-f.InitialSpeed, f.InitialSpeed)},
			}
		}
		return specs, nil
	}

	a := w.cfg.Assembly
	targets, err := TargetLayout(a.Layout, a.Count)
	if err != nil {
		return nil, fmt.Errorf("building target layout: %w", err)
	}
	specs := make([]AgentSpec, a.Count)
	for i := range specs {
		specs[i] = AgentSpec{
			Pos:    r2.Vec{X: w.uniform(a.Spawn.MinX, a.Spawn.MaxX), Y: w.uniform(a.Spawn.MinY, a.Spawn.MaxY)},
			Target: targets[i],
		}
	}
	return specs, nil
}

func (w *World) uniform(lo, hi float64) float64 {
	return lo + w.rng.Float64()*(hi-lo)
}
