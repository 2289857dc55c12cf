// Package camera provides a 2D camera system for viewport control.
package camera

import "math"

// Rect is an axis-aligned world rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the midpoint.
func (r Rect) Center() (x, y float64) {
	return (r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2
}

// Camera controls the viewport into the simulation world.
// Supports pan and zoom; toroidal worlds wrap, bounded worlds keep the
// camera center inside the rectangle.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float64

	// Zoom level in screen pixels per world unit
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World rectangle
	World Rect

	// Toroidal worlds take the shortest wrapped delta to the camera
	Toroidal bool

	// FlipY maps world +Y to screen up, for worlds centered on the origin
	FlipY bool

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the world, zoomed to fit it.
func New(viewportW, viewportH float32, world Rect, toroidal, flipY bool) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		World:     world,
		Toroidal:  toroidal,
		FlipY:     flipY,
		MaxZoom:   8.0,
	}
	c.updateMinZoom()
	c.Reset()
	return c
}

// fitZoom is the zoom at which the whole world just fits the viewport.
func (c *Camera) fitZoom() float32 {
	zx := c.ViewportW / float32(c.World.Width())
	zy := c.ViewportH / float32(c.World.Height())
	return min(zx, zy)
}

func (c *Camera) updateMinZoom() {
	if c.Toroidal {
		// viewport never exceeds world bounds, so no point is drawn twice
		c.MinZoom = max(c.ViewportW/float32(c.World.Width()), c.ViewportH/float32(c.World.Height()))
		return
	}
	c.MinZoom = c.fitZoom() / 2
}

// WorldToScreen converts world coordinates to screen coordinates.
// For toroidal worlds, this finds the shortest path to the viewport.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float32) {
	dx, dy := c.delta(wx, wy)
	sx = c.ViewportW/2 + float32(dx)*c.Zoom
	sy = c.ViewportH/2 + float32(dy)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float64) {
	dx := float64((sx - c.ViewportW/2) / c.Zoom)
	dy := float64((sy - c.ViewportH/2) / c.Zoom)
	if c.FlipY {
		dy = -dy
	}

	wx = c.X + dx
	wy = c.Y + dy
	if c.Toroidal {
		wx = c.World.MinX + mod(wx-c.World.MinX, c.World.Width())
		wy = c.World.MinY + mod(wy-c.World.MinY, c.World.Height())
	}
	return wx, wy
}

// ScaleLength converts a world length to screen pixels.
func (c *Camera) ScaleLength(l float64) float32 {
	return float32(l) * c.Zoom
}

// IsVisible returns true if a circle at (wx, wy) with given world radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float64) bool {
	dx, dy := c.delta(wx, wy)

	halfW := float64(c.ViewportW/(2*c.Zoom)) + radius
	halfH := float64(c.ViewportH/(2*c.Zoom)) + radius

	return math.Abs(dx) <= halfW && math.Abs(dy) <= halfH
}

// GhostPositions returns additional screen positions for agents near the
// wrap seam of a toroidal world so they show on both sides. Bounded worlds
// have no ghosts.
func (c *Camera) GhostPositions(wx, wy, radius float64) [][2]float32 {
	if !c.Toroidal {
		return nil
	}

	halfW := float64(c.ViewportW / (2 * c.Zoom))
	halfH := float64(c.ViewportH / (2 * c.Zoom))
	dx, dy := c.delta(wx, wy)
	ww, wh := c.World.Width(), c.World.Height()

	var hx, vy float64
	var horizontal, vertical bool
	switch {
	case dx > halfW-radius && dx < halfW+radius:
		horizontal, hx = true, dx-ww
	case dx < -halfW+radius && dx > -halfW-radius:
		horizontal, hx = true, dx+ww
	}
	switch {
	case dy > halfH-radius && dy < halfH+radius:
		vertical, vy = true, dy-wh
	case dy < -halfH+radius && dy > -halfH-radius:
		vertical, vy = true, dy+wh
	}

	screen := func(dx, dy float64) [2]float32 {
		return [2]float32{c.ViewportW/2 + float32(dx)*c.Zoom, c.ViewportH/2 + float32(dy)*c.Zoom}
	}

	var ghosts [][2]float32
	if horizontal {
		ghosts = append(ghosts, screen(hx, dy))
	}
	if vertical {
		ghosts = append(ghosts, screen(dx, vy))
	}
	if horizontal && vertical {
		ghosts = append(ghosts, screen(hx, vy))
	}
	return ghosts
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.updateMinZoom()
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	wdx := float64(dx / c.Zoom)
	wdy := float64(dy / c.Zoom)
	if c.FlipY {
		wdy = -wdy
	}

	if c.Toroidal {
		c.X = c.World.MinX + mod(c.X+wdx-c.World.MinX, c.World.Width())
		c.Y = c.World.MinY + mod(c.Y+wdy-c.World.MinY, c.World.Height())
		return
	}
	c.X = clamp(c.X+wdx, c.World.MinX, c.World.MaxX)
	c.Y = clamp(c.Y+wdy, c.World.MinY, c.World.MaxY)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = min(max(zoom, c.MinZoom), c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the camera on the world and zooms to fit.
func (c *Camera) Reset() {
	c.X, c.Y = c.World.Center()
	c.SetZoom(c.fitZoom())
}

// delta returns the screen-oriented world offset of (wx, wy) from the camera.
func (c *Camera) delta(wx, wy float64) (dx, dy float64) {
	dx = wx - c.X
	dy = wy - c.Y
	if c.Toroidal {
		dx = toroidalDelta(dx, c.World.Width())
		dy = toroidalDelta(dy, c.World.Height())
	}
	if c.FlipY {
		dy = -dy
	}
	return dx, dy
}

// toroidalDelta folds a signed distance into [-size/2, size/2].
func toroidalDelta(d, size float64) float64 {
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
