package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/windstorm12/emergent-systems-lab/ui"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.state.Paused = !g.state.Paused
	}
	if rl.IsKeyPressed(rl.KeyN) {
		g.pending.Step = true
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.pending.Restart = true
	}
	if rl.IsKeyPressed(rl.KeyH) {
		g.controls.Toggle()
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.state.StepsPerUpdate > ui.MinStepsPerUpdate {
		g.state.StepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.state.StepsPerUpdate < ui.MaxStepsPerUpdate {
		g.state.StepsPerUpdate++
	}

	// Overlay hotkeys
	for _, desc := range g.overlays.All() {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			g.overlays.Toggle(desc.ID)
		}
	}

	// Camera controls
	g.handleCameraInput()

	// Selection, unless the cursor is over the controls panel
	mousePos := rl.GetMousePosition()
	if !g.controls.Contains(mousePos.X, mousePos.Y) {
		g.inspector.HandleInput(mousePos.X, mousePos.Y, g.camera, g.world)
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.controls.SetPosition(int32(w)-230, 10)
	g.perfPanel.SetPosition(10, int32(h)-150)
	g.inspector.Resize(int32(w), int32(h))
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan works in screen pixels, so speed feels the same at every zoom
	panSpeed := float32(8.0)

	// Arrow key panning
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Middle-drag panning
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		d := rl.GetMouseDelta()
		g.camera.Pan(-d.X, -d.Y)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 {
		g.camera.ZoomBy(1 + wheelMove*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
