package systems

import "gonum.org/v1/gonum/spatial/r2"

// SpatialGrid is a uniform-grid NeighborIndex. It returns the same neighbor
// set as BruteForce while only visiting cells that overlap the query radius.
type SpatialGrid struct {
	cellSize float64
	minX     float64
	minY     float64
	cols     int
	rows     int
	cells    [][]int // flat grid of pool indices
}

// NewSpatialGrid creates a spatial grid covering the rectangle [minX,maxX]x[minY,maxY].
// Positions outside the rectangle are kept in the nearest edge cell.
func NewSpatialGrid(minX, minY, maxX, maxY, cellSize float64) *SpatialGrid {
	cols := int((maxX-minX)/cellSize) + 1
	rows := int((maxY-minY)/cellSize) + 1

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		minX:     minX,
		minY:     minY,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entries from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds pool index i at the given position.
func (g *SpatialGrid) Insert(i int, p r2.Vec) {
	idx := g.cellIndex(p)
	g.cells[idx] = append(g.cells[idx], i)
}

// Rebuild implements NeighborIndex.
func (g *SpatialGrid) Rebuild(pool []Body) {
	g.Clear()
	for i := range pool {
		g.Insert(i, pool[i].Pos)
	}
}

// Moved implements NeighborIndex.
func (g *SpatialGrid) Moved(i int, old, cur r2.Vec) {
	from := g.cellIndex(old)
	to := g.cellIndex(cur)
	if from == to {
		return
	}
	cell := g.cells[from]
	for k, v := range cell {
		if v == i {
			last := len(cell) - 1
			cell[k] = cell[last]
			g.cells[from] = cell[:last]
			break
		}
	}
	g.cells[to] = append(g.cells[to], i)
}

// QueryInto implements NeighborIndex.
func (g *SpatialGrid) QueryInto(dst []Neighbor, pool []Body, self int, radius float64) []Neighbor {
	origin := pool[self].Pos

	c0, r0 := g.cellCoords(r2.Vec{X: origin.X - radius, Y: origin.Y - radius})
	c1, r1 := g.cellCoords(r2.Vec{X: origin.X + radius, Y: origin.Y + radius})

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			for _, j := range g.cells[row*g.cols+col] {
				if j == self {
					continue
				}
				if n, ok := neighborOf(origin, pool, j, radius); ok {
					dst = append(dst, n)
				}
			}
		}
	}

	return dst
}

// cellCoords returns the clamped column and row for a world position.
func (g *SpatialGrid) cellCoords(p r2.Vec) (col, row int) {
	col = int((p.X - g.minX) / g.cellSize)
	row = int((p.Y - g.minY) / g.cellSize)

	// Clamp to valid range
	if p.X < g.minX || col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if p.Y < g.minY || row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return col, row
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(p r2.Vec) int {
	col, row := g.cellCoords(p)
	return row*g.cols + col
}
