package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Boundary maps a position that may have left the domain back into it.
type Boundary interface {
	Apply(p r2.Vec) r2.Vec
}

// Toroidal wraps coordinates into [0,Width) x [0,Height).
type Toroidal struct {
	Width, Height float64
}

// Apply implements Boundary.
func (t Toroidal) Apply(p r2.Vec) r2.Vec {
	return r2.Vec{X: wrap(p.X, t.Width), Y: wrap(p.Y, t.Height)}
}

// Clamp pins coordinates into [Min, Max]; agents pushed into a wall stick to it.
type Clamp struct {
	Min, Max r2.Vec
}

// Apply implements Boundary.
func (c Clamp) Apply(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: math.Max(c.Min.X, math.Min(c.Max.X, p.X)),
		Y: math.Max(c.Min.Y, math.Min(c.Max.Y, p.Y)),
	}
}

// Motion holds the integration limits in effect for one agent update.
type Motion struct {
	MaxSpeed float64
	Damping  float64 // velocity multiplier after the force is applied; 1 = none
	Boundary Boundary
}

// Integrate advances one unit timestep:
//
//	vel = (vel + force) * damping, clamped to MaxSpeed
//	pos = boundary(pos + vel)
func Integrate(pos, vel, force r2.Vec, m Motion) (newPos, newVel r2.Vec) {
	newVel = r2.Scale(m.Damping, r2.Add(vel, force))
	newVel = ClampSpeed(newVel, m.MaxSpeed)
	newPos = r2.Add(pos, newVel)
	if m.Boundary != nil {
		newPos = m.Boundary.Apply(newPos)
	}
	return newPos, newVel
}

// ClampSpeed rescales v to maxSpeed when it is faster, preserving direction.
func ClampSpeed(v r2.Vec, maxSpeed float64) r2.Vec {
	speed := r2.Norm(v)
	if speed > maxSpeed {
		return r2.Scale(maxSpeed/speed, v)
	}
	return v
}

// wrap returns x mod size in [0, size).
func wrap(x, size float64) float64 {
	r := math.Mod(x, size)
	if r < 0 {
		r += size
	}
	// -tiny + size rounds to size
	if r >= size {
		r = 0
	}
	return r
}
