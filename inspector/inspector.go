// Package inspector shows the components of a selected agent.
package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/windstorm12/emergent-systems-lab/camera"
	"github.com/windstorm12/emergent-systems-lab/config"
	"github.com/windstorm12/emergent-systems-lab/sim"
)

// Panel dimensions
const (
	PanelWidth    = 300
	PanelPadding  = 10
	HeaderHeight  = 30
	SectionHeight = 22

	// pick radius around the cursor, in screen pixels
	pickPixels = 12
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
	ColorCloseBtn    = rl.Color{R: 180, G: 80, B: 80, A: 255}
	ColorSection     = rl.Color{R: 50, G: 50, B: 60, A: 255}
	ColorSectionText = rl.Color{R: 200, G: 200, B: 220, A: 255}
)

// Inspector manages agent selection and panel rendering.
type Inspector struct {
	selected    uint32
	hasSelected bool
	panelX      int32
	panelY      int32
	panelH      int32
}

// NewInspector creates a new inspector with the panel on the bottom left.
func NewInspector(screenWidth, screenHeight int32) *Inspector {
	ins := &Inspector{}
	ins.Resize(screenWidth, screenHeight)
	return ins
}

// Resize repositions the panel for a new screen size.
func (ins *Inspector) Resize(screenWidth, screenHeight int32) {
	ins.panelX = 10
	ins.panelY = max(screenHeight/2-60, 10)
}

// HandleInput processes clicks for agent selection. Clicks that land on the
// panel itself are ignored.
func (ins *Inspector) HandleInput(mouseX, mouseY float32, cam *camera.Camera, world *sim.World) {
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) || rl.IsKeyPressed(rl.KeyEscape) {
		ins.Deselect()
		return
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}

	if ins.hasSelected {
		closeX := ins.panelX + PanelWidth - 25
		closeY := ins.panelY + 5
		if int32(mouseX) >= closeX && int32(mouseX) <= closeX+20 &&
			int32(mouseY) >= closeY && int32(mouseY) <= closeY+20 {
			ins.Deselect()
			return
		}
		if ins.contains(mouseX, mouseY) {
			return
		}
	}

	wx, wy := cam.ScreenToWorld(mouseX, mouseY)
	maxDist := float64(pickPixels / cam.Zoom)
	if id, ok := world.Nearest(r2.Vec{X: wx, Y: wy}, maxDist); ok {
		ins.Select(id)
	}
}

func (ins *Inspector) contains(px, py float32) bool {
	return int32(px) >= ins.panelX && int32(px) <= ins.panelX+PanelWidth &&
		int32(py) >= ins.panelY && int32(py) <= ins.panelY+ins.panelH
}

// Select marks an agent as selected.
func (ins *Inspector) Select(id uint32) {
	ins.selected = id
	ins.hasSelected = true
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
}

// Selected returns the selected agent ID, if any.
func (ins *Inspector) Selected() (uint32, bool) {
	return ins.selected, ins.hasSelected
}

// Draw renders the inspector panel if an agent is selected.
func (ins *Inspector) Draw(world *sim.World, flipY bool) {
	if !ins.hasSelected {
		return
	}

	detail, ok := world.Inspect(ins.selected)
	if !ok {
		// world was rebuilt with fewer agents
		ins.Deselect()
		return
	}

	sections := Sections(detail, maxSpeed(world), flipY)
	ins.panelH = calculatePanelHeight(sections)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, ins.panelH, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(ins.panelH)},
		1,
		ColorPanelBorder,
	)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText(fmt.Sprintf("AGENT %d", detail.Agent.ID), ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	closeX := ins.panelX + PanelWidth - 25
	closeY := ins.panelY + 5
	rl.DrawRectangle(closeX, closeY, 20, 20, ColorCloseBtn)
	rl.DrawText("X", closeX+6, closeY+3, 14, rl.White)

	x := ins.panelX + PanelPadding
	y := ins.panelY + HeaderHeight + PanelPadding
	for _, sec := range sections {
		ins.drawSectionHeader(x, y, sec.Title)
		y += SectionHeight
		for _, f := range sec.Fields {
			y += DrawField(x, y, f)
		}
		y += 4
	}
}

// drawSectionHeader renders a section title.
func (ins *Inspector) drawSectionHeader(x, y int32, title string) {
	rl.DrawRectangle(x-2, y-2, PanelWidth-2*PanelPadding+4, 18, ColorSection)
	rl.DrawText(title, x+2, y, 14, ColorSectionText)
}

// calculatePanelHeight computes the panel height for the given sections.
func calculatePanelHeight(sections []Section) int32 {
	height := int32(HeaderHeight + PanelPadding)
	for _, sec := range sections {
		height += SectionHeight + 4
		for _, f := range sec.Fields {
			height += FieldHeight(f)
		}
	}
	return height + PanelPadding
}

// maxSpeed returns the speed cap of the running variant for the speed bar.
func maxSpeed(world *sim.World) float64 {
	cfg := world.Config()
	if cfg.Run.Variant == config.VariantAssembly {
		return cfg.Assembly.Seeking.MaxSpeed
	}
	return cfg.Flocking.MaxSpeed
}
