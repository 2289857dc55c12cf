package sim

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/windstorm12/emergent-systems-lab/components"
)

// AgentView is the read-only per-agent state exposed to renderers.
type AgentView struct {
	ID     uint32
	X, Y   float64
	VX, VY float64
	Phase  components.Phase
}

// View returns the current state of every agent in ID order.
func (w *World) View() []AgentView {
	return w.ViewInto(make([]AgentView, 0, len(w.entities)))
}

// ViewInto appends the current agent states to dst, for callers that reuse a
// buffer every frame.
func (w *World) ViewInto(dst []AgentView) []AgentView {
	assembly := w.isAssembly()
	for i, e := range w.entities {
		pos := w.posMap.Get(e)
		vel := w.velMap.Get(e)
		v := AgentView{ID: uint32(i), X: pos.X, Y: pos.Y, VX: vel.X, VY: vel.Y}
		if assembly {
			v.Phase = w.assemblyMap.Get(e).Phase()
		}
		dst = append(dst, v)
	}
	return dst
}

// Targets returns the target layout indexed by agent ID, or nil for flocking.
// The slice must not be modified.
func (w *World) Targets() []r2.Vec {
	return w.targets
}

// Nearest returns the ID of the agent closest to p within maxDist.
func (w *World) Nearest(p r2.Vec, maxDist float64) (uint32, bool) {
	best := -1
	bestSq := maxDist * maxDist
	for i, e := range w.entities {
		pos := w.posMap.Get(e)
		d := r2.Norm2(r2.Sub(r2.Vec{X: pos.X, Y: pos.Y}, p))
		if d <= bestSq {
			best = i
			bestSq = d
		}
	}
	if best < 0 {
		return 0, false
	}
	return uint32(best), true
}

// AgentDetail holds copies of one agent's components for inspection.
type AgentDetail struct {
	Agent     components.Agent
	Position  components.Position
	Velocity  components.Velocity
	Target    *components.Target
	Assembly  *components.Assembly
	Neighbors int
}

// Inspect returns the components of agent id.
func (w *World) Inspect(id uint32) (AgentDetail, bool) {
	if int(id) >= len(w.entities) {
		return AgentDetail{}, false
	}
	e := w.entities[id]
	if !w.world.Alive(e) {
		return AgentDetail{}, false
	}

	d := AgentDetail{
		Agent:     components.Agent{ID: id},
		Position:  *w.posMap.Get(e),
		Velocity:  *w.velMap.Get(e),
		Neighbors: w.intents[id].Neighbors,
	}
	if w.isAssembly() {
		t := *w.targetMap.Get(e)
		a := *w.assemblyMap.Get(e)
		d.Target = &t
		d.Assembly = &a
	}
	return d, true
}
