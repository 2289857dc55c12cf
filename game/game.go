// Package game runs the interactive viewer around a sim.World.
package game

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/windstorm12/emergent-systems-lab/camera"
	"github.com/windstorm12/emergent-systems-lab/config"
	"github.com/windstorm12/emergent-systems-lab/inspector"
	"github.com/windstorm12/emergent-systems-lab/renderer"
	"github.com/windstorm12/emergent-systems-lab/sim"
	"github.com/windstorm12/emergent-systems-lab/telemetry"
	"github.com/windstorm12/emergent-systems-lab/ui"
)

// Options configures the viewer.
type Options struct {
	Sim            sim.Options
	StepsPerUpdate int
}

// Game holds the viewer state around one simulation world.
type Game struct {
	cfg      *config.Config
	simOpts  sim.Options
	world    *sim.World
	restarts int

	// Rendering
	camera     *camera.Camera
	background *renderer.BackgroundRenderer
	agents     *renderer.AgentRenderer

	// UI
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	controls  *ui.ControlsPanel
	overlays  *ui.OverlayRegistry
	inspector *inspector.Inspector

	// State
	state     ui.ControlState
	pending   ui.ControlActions // clicked during the last Draw
	lastStats *telemetry.WindowStats
	views     []sim.AgentView

	// Window dimensions
	screenWidth, screenHeight float32
}

// NewGame creates a viewer and its first world. The raylib window must
// already be open.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	g := &Game{
		cfg:          cfg,
		simOpts:      opts.Sim,
		background:   renderer.NewBackgroundRenderer(12, 14, 18),
		agents:       renderer.NewAgentRenderer(),
		hud:          ui.NewHUD(),
		overlays:     ui.NewOverlayRegistry(),
		screenWidth:  float32(cfg.Screen.Width),
		screenHeight: float32(cfg.Screen.Height),
		state: ui.ControlState{
			StepsPerUpdate: max(opts.StepsPerUpdate, ui.MinStepsPerUpdate),
		},
	}

	// chain the caller's callback so the HUD sees every closed window
	userCallback := opts.Sim.StatsCallback
	g.simOpts.StatsCallback = func(s telemetry.WindowStats) {
		g.lastStats = &s
		if userCallback != nil {
			userCallback(s)
		}
	}

	world, err := sim.NewWorld(cfg, g.simOpts)
	if err != nil {
		return nil, err
	}
	g.world = world

	bounds, toroidal, flipY := WorldView(cfg)
	g.camera = camera.New(g.screenWidth, g.screenHeight, bounds, toroidal, flipY)

	sw, sh := int32(g.screenWidth), int32(g.screenHeight)
	g.perfPanel = ui.NewPerfPanel(10, sh-150)
	g.controls = ui.NewControlsPanel(sw-230, 10, 220)
	g.inspector = inspector.NewInspector(sw, sh)

	return g, nil
}

// WorldView returns the camera rectangle for the configured variant.
// Flocking wraps on [0,w)x[0,h) with screen-down +Y; self-assembly is a
// bounded domain around the origin drawn with +Y up.
func WorldView(cfg *config.Config) (bounds camera.Rect, toroidal, flipY bool) {
	if cfg.Run.Variant == config.VariantAssembly {
		b := cfg.Assembly.Bounds
		return camera.Rect{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY}, false, true
	}
	return camera.Rect{MaxX: cfg.Flocking.Width, MaxY: cfg.Flocking.Height}, true, false
}

// Update processes input and advances the simulation.
func (g *Game) Update() {
	g.handleInput()
	g.applyActions()

	steps := g.state.StepsPerUpdate
	if g.state.Paused {
		if !g.pending.Step {
			return
		}
		steps = 1
	}
	g.pending = ui.ControlActions{}

	for range steps {
		if g.world.Outcome().Done() {
			return
		}
		g.world.Step()
	}
}

// applyActions handles the one-shot buttons clicked in the last frame.
func (g *Game) applyActions() {
	a := g.pending
	if a.ResetCam {
		g.camera.Reset()
	}
	if a.Restart {
		if err := g.Restart(); err != nil {
			slog.Error("restart failed", "error", err)
		}
	}
	g.pending.ResetCam = false
	g.pending.Restart = false
}

// Restart replaces the world with a fresh one using the next seed.
// CSV output of restarted runs goes to a numbered subdirectory.
func (g *Game) Restart() error {
	g.restarts++
	opts := g.simOpts
	opts.Seed += int64(g.restarts)
	if opts.OutputDir != "" {
		opts.OutputDir = filepath.Join(opts.OutputDir, fmt.Sprintf("restart-%d", g.restarts))
	}

	world, err := sim.NewWorld(g.cfg, opts)
	if err != nil {
		return fmt.Errorf("creating world: %w", err)
	}

	if err := g.world.Close(); err != nil {
		slog.Error("failed to close world", "error", err)
	}
	g.world = world
	g.lastStats = nil
	g.inspector.Deselect()

	slog.Info("world restarted",
		"seed", world.Seed(),
		"restarts", g.restarts,
		"output_dir", world.OutputDir(),
	)
	return nil
}

// Unload releases the world.
func (g *Game) Unload() {
	if err := g.world.Close(); err != nil {
		slog.Error("failed to close world", "error", err)
	}
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.world.Tick()
}

// World returns the running simulation.
func (g *Game) World() *sim.World {
	return g.world
}
