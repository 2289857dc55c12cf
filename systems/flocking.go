package systems

import "gonum.org/v1/gonum/spatial/r2"

// FlockingParams holds the boids rule weights.
type FlockingParams struct {
	PerceptionRadius float64
	SeparationWeight float64
	AlignmentWeight  float64
	CohesionWeight   float64
	CohesionScale    float64
}

// FlockingForce returns the net steering force on self from its neighbors:
//
//	separation = sum((self - other) / dist)
//	alignment  = mean(other.vel) - self.vel
//	cohesion   = (mean(other.pos) - self.pos) * CohesionScale
//
// each multiplied by its weight. With no neighbors the force is zero.
func FlockingForce(self Body, pool []Body, neighbors []Neighbor, p FlockingParams) r2.Vec {
	if len(neighbors) == 0 {
		return r2.Vec{}
	}

	var sep, velSum, posSum r2.Vec
	for _, n := range neighbors {
		other := &pool[n.Index]
		sep = r2.Add(sep, r2.Scale(1/n.Dist, n.Delta))
		velSum = r2.Add(velSum, other.Vel)
		posSum = r2.Add(posSum, other.Pos)
	}

	inv := 1 / float64(len(neighbors))
	align := r2.Sub(r2.Scale(inv, velSum), self.Vel)
	coh := r2.Scale(p.CohesionScale, r2.Sub(r2.Scale(inv, posSum), self.Pos))

	force := r2.Scale(p.SeparationWeight, sep)
	force = r2.Add(force, r2.Scale(p.AlignmentWeight, align))
	force = r2.Add(force, r2.Scale(p.CohesionWeight, coh))
	return force
}
