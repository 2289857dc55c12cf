package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/windstorm12/emergent-systems-lab/camera"
)

// BackgroundRenderer clears the frame and outlines the world.
type BackgroundRenderer struct {
	Color       rl.Color
	BoundsColor rl.Color
	GridColor   rl.Color
}

// NewBackgroundRenderer creates a new background renderer.
func NewBackgroundRenderer(baseR, baseG, baseB uint8) *BackgroundRenderer {
	return &BackgroundRenderer{
		Color:       rl.Color{R: baseR, G: baseG, B: baseB, A: 255},
		BoundsColor: rl.Color{R: 70, G: 80, B: 90, A: 255},
		GridColor:   rl.Color{R: 40, G: 48, B: 56, A: 255},
	}
}

// Draw clears the screen. Bounded worlds get an outline of their rectangle;
// toroidal worlds have no edge to show.
func (b *BackgroundRenderer) Draw(cam *camera.Camera) {
	rl.ClearBackground(b.Color)
	if cam.Toroidal {
		return
	}

	w := cam.World
	x0, y0 := cam.WorldToScreen(w.MinX, w.MaxY)
	x1, y1 := cam.WorldToScreen(w.MaxX, w.MinY)
	if cam.FlipY {
		rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, b.BoundsColor)
		return
	}
	// without the flip MinY is the top edge
	x0, y0 = cam.WorldToScreen(w.MinX, w.MinY)
	x1, y1 = cam.WorldToScreen(w.MaxX, w.MaxY)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, b.BoundsColor)
}

// DrawGrid draws lattice lines every cellSize world units, aligned to the
// world's minimum corner. Toroidal lines span the whole viewport.
func (b *BackgroundRenderer) DrawGrid(cam *camera.Camera, cellSize float64) {
	if cellSize <= 0 || cam.ScaleLength(cellSize) < 4 {
		return
	}
	w := cam.World

	for x := w.MinX; x < w.MaxX; x += cellSize {
		sx0, sy0 := cam.WorldToScreen(x, w.MinY)
		sx1, sy1 := cam.WorldToScreen(x, w.MaxY)
		if cam.Toroidal {
			sy0, sy1 = 0, cam.ViewportH
		}
		rl.DrawLineV(rl.Vector2{X: sx0, Y: sy0}, rl.Vector2{X: sx1, Y: sy1}, b.GridColor)
	}
	for y := w.MinY; y < w.MaxY; y += cellSize {
		sx0, sy0 := cam.WorldToScreen(w.MinX, y)
		sx1, sy1 := cam.WorldToScreen(w.MaxX, y)
		if cam.Toroidal {
			sx0, sx1 = 0, cam.ViewportW
		}
		rl.DrawLineV(rl.Vector2{X: sx0, Y: sy0}, rl.Vector2{X: sx1, Y: sy1}, b.GridColor)
	}
}
