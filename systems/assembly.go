package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ModeParams holds the force weights of one self-assembly mode.
type ModeParams struct {
	TargetForce     float64
	SeparationScale float64
	Damping         float64
	MaxSpeed        float64
	ApproachGain    float64 // >0: speed cap shrinks to ApproachGain*dist near the target
}

// AssemblyParams holds the self-assembly thresholds and per-mode weights.
type AssemblyParams struct {
	LockThreshold      float64
	PrecisionThreshold float64
	SeparationRadius   float64
	Seeking            ModeParams
	Precision          ModeParams
}

// Mode returns the weights for the given precision flag.
func (p *AssemblyParams) Mode(precision bool) *ModeParams {
	if precision {
		return &p.Precision
	}
	return &p.Seeking
}

// SpeedCap returns the speed limit for a mode at the given distance to target.
func (m *ModeParams) SpeedCap(distToTarget float64) float64 {
	if m.ApproachGain > 0 {
		return math.Min(m.MaxSpeed, m.ApproachGain*distToTarget)
	}
	return m.MaxSpeed
}

// Transition reports a state change made by AdvancePhase.
type Transition uint8

const (
	TransitionNone Transition = iota
	TransitionPrecision
	TransitionLocked
)

// AdvancePhase evaluates the state machine at the start of an update.
// Within the lock threshold the body snaps onto its target with zero velocity.
// Otherwise it enters precision mode once inside the precision threshold.
// Locked bodies never change.
func AdvancePhase(b *Body, p *AssemblyParams) Transition {
	if b.Locked {
		return TransitionNone
	}

	dist := b.DistToTarget()
	if dist < p.LockThreshold {
		b.Locked = true
		b.Pos = b.Target
		b.Vel = r2.Vec{}
		return TransitionLocked
	}
	if !b.Precision && dist < p.PrecisionThreshold {
		b.Precision = true
		return TransitionPrecision
	}
	return TransitionNone
}

// TargetForce returns the unit vector toward the target scaled by the mode's
// target force. It is zero when the body sits exactly on its target.
func TargetForce(b *Body, m *ModeParams) r2.Vec {
	toTarget := r2.Sub(b.Target, b.Pos)
	dist := r2.Norm(toTarget)
	if dist <= 0 {
		return r2.Vec{}
	}
	return r2.Scale(m.TargetForce/dist, toTarget)
}

// AvoidanceForce sums (self - other) * (radius - dist) / dist over unlocked
// neighbors closer than radius. Locked neighbors are passed through.
func AvoidanceForce(pool []Body, neighbors []Neighbor, radius float64) r2.Vec {
	var sep r2.Vec
	for _, n := range neighbors {
		if pool[n.Index].Locked || n.Dist >= radius {
			continue
		}
		push := (radius - n.Dist) / n.Dist
		sep = r2.Add(sep, r2.Scale(push, n.Delta))
	}
	return sep
}

// AssemblyForce returns the net force on an unlocked body: target seeking plus
// mode-scaled collision avoidance.
func AssemblyForce(self *Body, pool []Body, neighbors []Neighbor, p *AssemblyParams) r2.Vec {
	m := p.Mode(self.Precision)
	force := TargetForce(self, m)
	sep := AvoidanceForce(pool, neighbors, p.SeparationRadius)
	return r2.Add(force, r2.Scale(m.SeparationScale, sep))
}

// YieldContested drops neighbors that yield to pool[self]: higher-index
// agents whose target lies within radius of self's target. The lower index
// then reaches its target unopposed, locks, and stops repelling the rest.
// Filters neighbors in place.
func YieldContested(pool []Body, self int, neighbors []Neighbor, radius float64) []Neighbor {
	target := pool[self].Target
	kept := neighbors[:0]
	for _, n := range neighbors {
		if n.Index > self && r2.Norm(r2.Sub(pool[n.Index].Target, target)) < radius {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}
