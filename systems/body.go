// Package systems provides the per-agent force model, neighbor queries and
// integration used by the simulation.
package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/windstorm12/emergent-systems-lab/components"
)

// Body is the plain-value state of one agent used during a tick.
// The orchestrator snapshots ECS components into a []Body, runs the force
// model over it and writes the result back.
type Body struct {
	ID        uint32
	Pos       r2.Vec
	Vel       r2.Vec
	Target    r2.Vec
	Precision bool
	Locked    bool
}

// Phase returns the visual-state tag for an assembly body.
func (b *Body) Phase() components.Phase {
	return components.Assembly{Precision: b.Precision, Locked: b.Locked}.Phase()
}

// DistToTarget returns the Euclidean distance from the body to its target.
func (b *Body) DistToTarget() float64 {
	return r2.Norm(r2.Sub(b.Target, b.Pos))
}

// Speed returns the magnitude of the body's velocity.
func (b *Body) Speed() float64 {
	return r2.Norm(b.Vel)
}
