package systems

import "gonum.org/v1/gonum/spatial/r2"

// Neighbor holds a nearby agent with precomputed spatial data.
type Neighbor struct {
	Index int    // index into the pool
	Delta r2.Vec // self - other
	Dist  float64
}

// NeighborIndex finds neighbors of pool[self]. Implementations return every
// j != self with 0 < |pool[self].Pos - pool[j].Pos| < radius, appended to dst
// in no particular order.
type NeighborIndex interface {
	QueryInto(dst []Neighbor, pool []Body, self int, radius float64) []Neighbor
	// Rebuild is called with the tick-start pool.
	Rebuild(pool []Body)
	// Moved is called after pool[i] was updated in place from old.
	Moved(i int, old, cur r2.Vec)
}

// BruteForce is the naive O(n) per query scan. It keeps no state.
type BruteForce struct{}

// QueryInto implements NeighborIndex.
func (BruteForce) QueryInto(dst []Neighbor, pool []Body, self int, radius float64) []Neighbor {
	return QueryNeighborsInto(dst, pool, self, radius)
}

// Rebuild implements NeighborIndex.
func (BruteForce) Rebuild([]Body) {}

// Moved implements NeighborIndex.
func (BruteForce) Moved(int, r2.Vec, r2.Vec) {}

// QueryNeighborsInto scans the whole pool for agents within radius of pool[self].
// Coincident agents (dist == 0) are excluded so downstream terms never divide by zero.
// Reuse dst across calls to avoid allocations.
func QueryNeighborsInto(dst []Neighbor, pool []Body, self int, radius float64) []Neighbor {
	origin := pool[self].Pos
	for j := range pool {
		if j == self {
			continue
		}
		if n, ok := neighborOf(origin, pool, j, radius); ok {
			dst = append(dst, n)
		}
	}
	return dst
}

// neighborOf applies the 0 < dist < radius test to pool[j].
func neighborOf(origin r2.Vec, pool []Body, j int, radius float64) (Neighbor, bool) {
	delta := r2.Sub(origin, pool[j].Pos)
	distSq := r2.Norm2(delta)
	if distSq == 0 || distSq >= radius*radius {
		return Neighbor{}, false
	}
	return Neighbor{Index: j, Delta: delta, Dist: r2.Norm(delta)}, true
}
