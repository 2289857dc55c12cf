package sim

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/windstorm12/emergent-systems-lab/config"
	"github.com/windstorm12/emergent-systems-lab/systems"
)

// model computes one agent's next state from the current pool.
// Implementations read pool and never write to it.
type model interface {
	update(pool []systems.Body, i int, index systems.NeighborIndex, scratch *workerScratch) intent
}

// intent captures the computed outputs of one agent update.
type intent struct {
	Body       systems.Body
	Transition systems.Transition
	Neighbors  int
}

func newModel(cfg *config.Config) model {
	if cfg.Run.Variant == config.VariantFlocking {
		f := cfg.Flocking
		return &flockModel{
			params: systems.FlockingParams{
				PerceptionRadius: f.PerceptionRadius,
				SeparationWeight: f.SeparationWeight,
				AlignmentWeight:  f.AlignmentWeight,
				CohesionWeight:   f.CohesionWeight,
				CohesionScale:    f.CohesionScale,
			},
			motion: systems.Motion{
				MaxSpeed: f.MaxSpeed,
				Damping:  1,
				Boundary: systems.Toroidal{Width: f.Width, Height: f.Height},
			},
		}
	}

	a := cfg.Assembly
	return &assemblyModel{
		params:     AssemblyParams(a),
		rightOfWay: cfg.Run.Discipline == config.DisciplineSynchronous,
		bounds: systems.Clamp{
			Min: r2.Vec{X: a.Bounds.MinX, Y: a.Bounds.MinY},
			Max: r2.Vec{X: a.Bounds.MaxX, Y: a.Bounds.MaxY},
		},
	}
}

// AssemblyParams converts the configured self-assembly block.
func AssemblyParams(a config.AssemblyConfig) systems.AssemblyParams {
	mode := func(m config.ModeConfig) systems.ModeParams {
		return systems.ModeParams{
			TargetForce:     m.TargetForce,
			SeparationScale: m.SeparationScale,
			Damping:         m.Damping,
			MaxSpeed:        m.MaxSpeed,
			ApproachGain:    m.ApproachGain,
		}
	}
	return systems.AssemblyParams{
		LockThreshold:      a.LockThreshold,
		PrecisionThreshold: a.PrecisionThreshold,
		SeparationRadius:   a.SeparationRadius,
		Seeking:            mode(a.Seeking),
		Precision:          mode(a.Precision),
	}
}

// flockModel applies the boids rules under a toroidal boundary.
type flockModel struct {
	params systems.FlockingParams
	motion systems.Motion
}

func (m *flockModel) update(pool []systems.Body, i int, index systems.NeighborIndex, scratch *workerScratch) intent {
	self := pool[i]
	scratch.neighbors = index.QueryInto(scratch.neighbors[:0], pool, i, m.params.PerceptionRadius)

	force := systems.FlockingForce(self, pool, scratch.neighbors, m.params)
	self.Pos, self.Vel = systems.Integrate(self.Pos, self.Vel, force, m.motion)

	return intent{Body: self, Neighbors: len(scratch.neighbors)}
}

// assemblyModel drives agents through seeking, precision and locked.
// With rightOfWay set, an agent ignores avoidance from higher IDs whose target
// is within the separation radius of its own.
type assemblyModel struct {
	params     systems.AssemblyParams
	bounds     systems.Clamp
	rightOfWay bool
}

func (m *assemblyModel) update(pool []systems.Body, i int, index systems.NeighborIndex, scratch *workerScratch) intent {
	self := pool[i]
	if self.Locked {
		return intent{Body: self}
	}

	tr := systems.AdvancePhase(&self, &m.params)
	if tr == systems.TransitionLocked {
		return intent{Body: self, Transition: tr}
	}

	scratch.neighbors = index.QueryInto(scratch.neighbors[:0], pool, i, m.params.SeparationRadius)
	neighbors := len(scratch.neighbors)
	if m.rightOfWay {
		scratch.neighbors = systems.YieldContested(pool, i, scratch.neighbors, m.params.SeparationRadius)
	}
	force := systems.AssemblyForce(&self, pool, scratch.neighbors, &m.params)

	mode := m.params.Mode(self.Precision)
	self.Pos, self.Vel = systems.Integrate(self.Pos, self.Vel, force, systems.Motion{
		MaxSpeed: mode.SpeedCap(self.DistToTarget()),
		Damping:  mode.Damping,
		Boundary: m.bounds,
	})

	return intent{Body: self, Transition: tr, Neighbors: neighbors}
}
