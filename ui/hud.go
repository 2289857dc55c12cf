package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/windstorm12/emergent-systems-lab/components"
	"github.com/windstorm12/emergent-systems-lab/renderer"
	"github.com/windstorm12/emergent-systems-lab/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title    string
	Variant  string
	Assembly bool
	Tick     int32
	MaxTicks int
	Status   string
	Agents   int
	Locked   int
	Speed    int
	FPS      int32
	Paused   bool

	// Last closed stats window, nil before the first flush
	Stats *telemetry.WindowStats
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD in the top-left corner.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer

	rl.DrawText(data.Title, 10, 10, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("Tick: %d/%d | Speed: %dx | FPS: %d", data.Tick, data.MaxTicks, data.Speed, data.FPS),
		10, 35, 16, rl.LightGray,
	)

	statusText := data.Status
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(fmt.Sprintf("%s | %d agents | %s", data.Variant, data.Agents, statusText), 10, 55, 16, rl.Yellow)

	y := int32(80)
	if data.Assembly {
		frac := 0.0
		if data.Agents > 0 {
			frac = float64(data.Locked) / float64(data.Agents)
		}
		y = r.DrawBar(10, y, fmt.Sprintf("Locked %d", data.Locked), frac, 260, renderer.ColorLocked)
	}

	if s := data.Stats; s != nil {
		if data.Assembly {
			y = r.DrawLabelValue(10, y, "Seek/Prec", fmt.Sprintf("%d / %d", s.Seeking, s.Precision))
			y = r.DrawLabelValue(10, y, "Dist mean", fmt.Sprintf("%.1f", s.DistMean))
		} else {
			y = r.DrawBar(10, y, "Polarization", s.Polarization, 260, renderer.ColorFree)
		}
		r.DrawLabelValue(10, y, "Speed mean", fmt.Sprintf("%.2f", s.SpeedMean))
	}
}

// DrawLegend renders the phase color legend in the bottom-right corner.
func (h *HUD) DrawLegend(screenWidth, screenHeight int32) {
	r := h.renderer
	phases := []components.Phase{components.PhaseSeeking, components.PhasePrecision, components.PhaseLocked}

	width := int32(110)
	height := int32(len(phases)+1)*r.Theme.LineHeight + r.Theme.Padding*2
	x, y := Place(AnchorBottomRight, screenWidth, screenHeight, width, height, 10)
	r.DrawPanel(x, y, width, height)

	y += r.Theme.Padding
	for _, p := range phases {
		y = r.DrawSwatch(x+r.Theme.Padding, y, renderer.PhaseColor(p), p.String())
	}
	r.DrawSwatch(x+r.Theme.Padding, y, renderer.ColorTarget, "target")
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase step timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s  p95: %s  TPS: %.0f",
		stats.AvgTick.Round(time.Microsecond), stats.P95Tick.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	slowest := stats.Bottleneck()
	for _, phase := range telemetry.PhaseOrder() {
		pct := stats.PhasePct[phase]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		marker := " "
		if phase == slowest && stats.Samples > 0 {
			marker = "*"
		}

		rl.DrawText(
			fmt.Sprintf("%s%-10s %8s %5.1f%%", marker, phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
