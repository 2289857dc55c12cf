// Package renderer provides rendering utilities.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/windstorm12/emergent-systems-lab/camera"
	"github.com/windstorm12/emergent-systems-lab/components"
	"github.com/windstorm12/emergent-systems-lab/sim"
)

// Phase colors
var (
	ColorFree      = rl.White
	ColorSeeking   = rl.Color{R: 0, G: 255, B: 255, A: 255}
	ColorPrecision = rl.Orange
	ColorLocked    = rl.Lime
	ColorTarget    = rl.Yellow
)

// PhaseColor returns the draw color for an agent phase.
func PhaseColor(p components.Phase) rl.Color {
	switch p {
	case components.PhaseSeeking:
		return ColorSeeking
	case components.PhasePrecision:
		return ColorPrecision
	case components.PhaseLocked:
		return ColorLocked
	default:
		return ColorFree
	}
}

// AgentRenderer renders agents and formation targets.
type AgentRenderer struct {
	AgentRadius  float64 // world units
	TargetRadius float64 // world units
	MinPixels    float32 // smallest on-screen radius
}

// NewAgentRenderer creates a new agent renderer.
func NewAgentRenderer() *AgentRenderer {
	return &AgentRenderer{
		AgentRadius:  3,
		TargetRadius: 1.5,
		MinPixels:    1.5,
	}
}

// DrawTargets renders the formation slots as dots.
func (r *AgentRenderer) DrawTargets(cam *camera.Camera, targets []r2.Vec) {
	radius := max(cam.ScaleLength(r.TargetRadius), 1)
	for _, t := range targets {
		if !cam.IsVisible(t.X, t.Y, r.TargetRadius) {
			continue
		}
		sx, sy := cam.WorldToScreen(t.X, t.Y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, ColorTarget)
	}
}

// Draw renders all agents. Flocking agents are drawn as triangles pointing
// along their velocity, self-assembly agents as discs colored by phase.
func (r *AgentRenderer) Draw(cam *camera.Camera, agents []sim.AgentView) {
	radius := max(cam.ScaleLength(r.AgentRadius), r.MinPixels)

	for i := range agents {
		a := &agents[i]
		if !cam.IsVisible(a.X, a.Y, r.AgentRadius*1.5) {
			continue
		}

		color := PhaseColor(a.Phase)
		sx, sy := cam.WorldToScreen(a.X, a.Y)

		if a.Phase != components.PhaseFree {
			rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, color)
			continue
		}

		heading := screenHeading(cam, a.VX, a.VY)
		drawOrientedTriangle(sx, sy, heading, radius, color)
		for _, g := range cam.GhostPositions(a.X, a.Y, r.AgentRadius*1.5) {
			drawOrientedTriangle(g[0], g[1], heading, radius, color)
		}
	}
}

// DrawSelection highlights a single agent.
func (r *AgentRenderer) DrawSelection(cam *camera.Camera, a sim.AgentView) {
	sx, sy := cam.WorldToScreen(a.X, a.Y)
	radius := max(cam.ScaleLength(r.AgentRadius), r.MinPixels) + 4
	rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, radius, rl.Yellow)
}

// screenHeading converts a world velocity to a screen-space angle.
func screenHeading(cam *camera.Camera, vx, vy float64) float32 {
	if cam.FlipY {
		vy = -vy
	}
	return float32(math.Atan2(vy, vx))
}

// drawOrientedTriangle draws a triangle pointing in the heading direction.
func drawOrientedTriangle(x, y, heading, radius float32, color rl.Color) {
	cos := float32(math.Cos(float64(heading)))
	sin := float32(math.Sin(float64(heading)))

	front := rl.Vector2{X: x + cos*radius*1.5, Y: y + sin*radius*1.5}

	backAngle := float64(heading) + math.Pi*0.8
	backLeft := rl.Vector2{
		X: x + float32(math.Cos(backAngle))*radius,
		Y: y + float32(math.Sin(backAngle))*radius,
	}

	backAngle = float64(heading) - math.Pi*0.8
	backRight := rl.Vector2{
		X: x + float32(math.Cos(backAngle))*radius,
		Y: y + float32(math.Sin(backAngle))*radius,
	}

	// DrawTriangle requires counter-clockwise winding
	rl.DrawTriangle(front, backRight, backLeft, color)
}
