package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Steps-per-update slider range
const (
	MinStepsPerUpdate = 1
	MaxStepsPerUpdate = 20
)

// ControlState is the run state the controls panel edits in place.
type ControlState struct {
	Paused         bool
	StepsPerUpdate int
}

// ControlActions reports one-shot requests from the panel.
type ControlActions struct {
	Restart  bool
	Step     bool // advance one tick while paused
	ResetCam bool
}

// ControlsPanel renders the right-side controls panel with run buttons and
// overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	height   int32 // as of the last Draw
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point is over the panel, so clicks on it
// are not treated as world selection.
func (c *ControlsPanel) Contains(px, py float32) bool {
	if !c.visible {
		return false
	}
	return px >= float32(c.x) && px <= float32(c.x+c.width) &&
		py >= float32(c.y) && py <= float32(c.y+c.height)
}

// panelHeight sizes the panel for the fixed controls plus one row per overlay.
func (c *ControlsPanel) panelHeight(overlays *OverlayRegistry) int32 {
	t := c.renderer.Theme
	h := int32(24+30+34+16+28) + t.Padding*2
	for _, cat := range overlays.Categories() {
		h += t.LineHeight + 4 + int32(len(overlays.ByCategory(cat)))*22
	}
	return h
}

// Draw renders the controls panel and applies user input to state.
func (c *ControlsPanel) Draw(state *ControlState, overlays *OverlayRegistry) ControlActions {
	var actions ControlActions
	if !c.visible {
		return actions
	}

	r := c.renderer
	padding := r.Theme.Padding
	c.height = c.panelHeight(overlays)
	r.DrawPanel(c.x, c.y, c.width, c.height)

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	inner := float32(c.width - padding*2)
	half := (inner - 6) / 2

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += 24

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 24}, "Step") {
		actions.Step = true
	}
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, "Restart") {
		actions.Restart = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 24}, "Reset View") {
		actions.ResetCam = true
	}
	y += 34

	rl.DrawText(fmt.Sprintf("Speed: %dx", state.StepsPerUpdate), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 16
	speed := gui.SliderBar(
		rl.Rectangle{X: x + 10, Y: y, Width: inner - 40, Height: 16},
		fmt.Sprint(MinStepsPerUpdate), fmt.Sprint(MaxStepsPerUpdate),
		float32(state.StepsPerUpdate), MinStepsPerUpdate, MaxStepsPerUpdate,
	)
	state.StepsPerUpdate = clampSteps(int(speed + 0.5))
	y += 28

	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), int32(x), int32(y), r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += float32(r.Theme.LineHeight) + 4

		for _, desc := range overlays.ByCategory(category) {
			enabled := overlays.IsEnabled(desc.ID)
			label := fmt.Sprintf("%s [%s]", desc.Name, desc.KeyLabel)
			if gui.Button(rl.Rectangle{X: x, Y: y, Width: inner - 30, Height: 18}, label) {
				overlays.Toggle(desc.ID)
				enabled = !enabled
			}
			c.drawStatus(x+inner-20, y+4, enabled)
			y += 22
		}
	}

	return actions
}

// drawStatus draws the on/off indicator next to an overlay button.
func (c *ControlsPanel) drawStatus(x, y float32, enabled bool) {
	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(int32(x), int32(y), 10, 10, statusColor)
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "visual":
		return "Visual"
	case "perception":
		return "Perception"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}

func clampSteps(n int) int {
	return min(max(n, MinStepsPerUpdate), MaxStepsPerUpdate)
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
