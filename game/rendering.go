package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/windstorm12/emergent-systems-lab/config"
	"github.com/windstorm12/emergent-systems-lab/ui"
)

// velocityScale stretches velocity vectors to a visible length, in ticks.
const velocityScale = 5.0

// Draw renders one frame.
func (g *Game) Draw() {
	g.world.Perf().RecordFrame()

	rl.BeginDrawing()
	g.background.Draw(g.camera)

	// Overlays under the agents
	if g.overlays.IsEnabled(ui.OverlaySpatialGrid) && g.cfg.Run.NeighborIndex == config.IndexGrid {
		g.background.DrawGrid(g.camera, g.cfg.Derived.CellSize)
	}
	if g.overlays.IsEnabled(ui.OverlayTargets) {
		g.agents.DrawTargets(g.camera, g.world.Targets())
	}

	g.views = g.world.ViewInto(g.views[:0])
	g.agents.Draw(g.camera, g.views)

	if g.overlays.IsEnabled(ui.OverlayVelocity) {
		g.drawVelocities()
	}
	g.drawSelection()

	g.drawUI()
	rl.EndDrawing()
}

// drawVelocities draws each agent's velocity as a line.
func (g *Game) drawVelocities() {
	color := rl.Color{R: 120, G: 160, B: 255, A: 160}
	for i := range g.views {
		a := &g.views[i]
		if a.VX == 0 && a.VY == 0 {
			continue
		}
		if !g.camera.IsVisible(a.X, a.Y, 0) {
			continue
		}
		sx, sy := g.camera.WorldToScreen(a.X, a.Y)
		ex, ey := g.camera.WorldToScreen(a.X+a.VX*velocityScale, a.Y+a.VY*velocityScale)
		rl.DrawLineV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: ex, Y: ey}, color)
	}
}

// drawSelection highlights the selected agent and its neighbor radius.
func (g *Game) drawSelection() {
	id, ok := g.inspector.Selected()
	if !ok || int(id) >= len(g.views) {
		return
	}
	a := g.views[id]
	g.agents.DrawSelection(g.camera, a)

	if !g.overlays.IsEnabled(ui.OverlayPerception) {
		return
	}
	sx, sy := g.camera.WorldToScreen(a.X, a.Y)
	radius := g.camera.ScaleLength(g.neighborRadius())
	rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, radius, rl.Color{R: 255, G: 255, B: 0, A: 120})
}

// neighborRadius returns the radius agents scan for neighbors.
func (g *Game) neighborRadius() float64 {
	if g.cfg.Run.Variant == config.VariantAssembly {
		return g.cfg.Assembly.SeparationRadius
	}
	return g.cfg.Flocking.PerceptionRadius
}

// drawUI renders the HUD, panels and inspector.
func (g *Game) drawUI() {
	sw, sh := int32(g.screenWidth), int32(g.screenHeight)
	assembly := g.cfg.Run.Variant == config.VariantAssembly
	outcome := g.world.Outcome()

	maxTicks := g.cfg.Flocking.Ticks
	if assembly {
		maxTicks = g.cfg.Assembly.MaxTicks
	}

	g.hud.Draw(ui.HUDData{
		Title:    "Emergent Systems Lab",
		Variant:  g.cfg.Run.Variant,
		Assembly: assembly,
		Tick:     g.world.Tick(),
		MaxTicks: maxTicks,
		Status:   outcome.Status.String(),
		Agents:   g.world.Len(),
		Locked:   g.world.Locked(),
		Speed:    g.state.StepsPerUpdate,
		FPS:      rl.GetFPS(),
		Paused:   g.state.Paused,
		Stats:    g.lastStats,
	})

	if assembly && g.overlays.IsEnabled(ui.OverlayLegend) {
		g.hud.DrawLegend(sw, sh)
	}
	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.Draw(g.world.Perf().Stats())
	}

	// Immediate-mode controls: clicks are applied on the next Update
	actions := g.controls.Draw(&g.state, g.overlays)
	g.pending.Restart = g.pending.Restart || actions.Restart
	g.pending.Step = g.pending.Step || actions.Step
	g.pending.ResetCam = g.pending.ResetCam || actions.ResetCam

	g.inspector.Draw(g.world, g.camera.FlipY)

	g.hud.DrawControls(sw, sh, "[Space] Pause  [N] Step  [R] Restart  [</>] Speed  [Arrows] Pan  [Wheel] Zoom  [Home] Reset  [H] Panel")
}
