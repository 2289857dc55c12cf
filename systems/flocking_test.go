package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

var defaultFlockingParams = FlockingParams{
	PerceptionRadius: 50,
	SeparationWeight: 1.5,
	AlignmentWeight:  1.0,
	CohesionWeight:   0.5,
	CohesionScale:    0.01,
}

func approxVec(a, b r2.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func TestFlockingForceNoNeighbors(t *testing.T) {
	pool := []Body{{Pos: r2.Vec{X: 100, Y: 100}, Vel: r2.Vec{X: 3, Y: 0}}}
	f := FlockingForce(pool[0], pool, nil, defaultFlockingParams)
	if f != (r2.Vec{}) {
		t.Errorf("expected zero force, got %v", f)
	}
}

func TestFlockingForceTerms(t *testing.T) {
	tests := []struct {
		name   string
		params FlockingParams
		want   r2.Vec
	}{
		{
			// delta (-10,0), dist 10 -> (-1,0) * 1.5
			name:   "separation only",
			params: FlockingParams{PerceptionRadius: 50, SeparationWeight: 1.5, CohesionScale: 0.01},
			want:   r2.Vec{X: -1.5, Y: 0},
		},
		{
			// mean vel (0,2) - self vel (1,0)
			name:   "alignment only",
			params: FlockingParams{PerceptionRadius: 50, AlignmentWeight: 1, CohesionScale: 0.01},
			want:   r2.Vec{X: -1, Y: 2},
		},
		{
			// (mean pos - self pos) * 0.01 = (10,0) * 0.01
			name:   "cohesion only",
			params: FlockingParams{PerceptionRadius: 50, CohesionWeight: 1, CohesionScale: 0.01},
			want:   r2.Vec{X: 0.1, Y: 0},
		},
		{
			name:   "all terms",
			params: defaultFlockingParams,
			want:   r2.Vec{X: -1.5 - 1 + 0.05, Y: 2},
		},
	}

	pool := []Body{
		{Pos: r2.Vec{X: 100, Y: 100}, Vel: r2.Vec{X: 1, Y: 0}},
		{Pos: r2.Vec{X: 110, Y: 100}, Vel: r2.Vec{X: 0, Y: 2}},
	}
	neighbors := QueryNeighborsInto(nil, pool, 0, 50)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FlockingForce(pool[0], pool, neighbors, tc.params)
			if !approxVec(got, tc.want, 1e-9) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFlockingSeparationIsUnitPerNeighbor(t *testing.T) {
	// separation contributes a unit vector per neighbor regardless of distance
	pool := []Body{
		{Pos: r2.Vec{X: 0, Y: 0}},
		{Pos: r2.Vec{X: 0, Y: 3}},
		{Pos: r2.Vec{X: 0, Y: 40}},
	}
	neighbors := QueryNeighborsInto(nil, pool, 0, 50)
	p := FlockingParams{PerceptionRadius: 50, SeparationWeight: 1}
	got := FlockingForce(pool[0], pool, neighbors, p)
	want := r2.Vec{X: 0, Y: -2}
	if !approxVec(got, want, 1e-9) {
		t.Errorf("got %v, want %v", got, want)
	}
}
