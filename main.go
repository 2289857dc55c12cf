package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/windstorm12/emergent-systems-lab/config"
	"github.com/windstorm12/emergent-systems-lab/game"
	"github.com/windstorm12/emergent-systems-lab/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml or .toml (empty = use defaults)")
	variant := flag.String("variant", "", "flocking | assembly (empty = use config)")
	discipline := flag.String("discipline", "", "semi_synchronous | synchronous (empty = use config)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Tick budget of the run (0 = use config)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per frame in the viewer")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *variant != "" {
		cfg.Run.Variant = *variant
	}
	if *discipline != "" {
		cfg.Run.Discipline = *discipline
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *maxTicks > 0 {
		cfg.Flocking.Ticks = *maxTicks
		cfg.Assembly.MaxTicks = *maxTicks
	}
	if err := cfg.Refresh(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Run.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := sim.Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	}

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		runHeadless(cfg, opts)
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Emergent Systems Lab")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGame(cfg, game.Options{Sim: opts, StepsPerUpdate: *stepsPerUpdate})
	if err != nil {
		slog.Error("failed to create world", "error", err)
		rl.CloseWindow()
		os.Exit(1)
	}
	defer g.Unload()

	slog.Info("starting viewer", "variant", cfg.Run.Variant, "seed", rngSeed)

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()
	}
}

// runHeadless steps the world until it terminates or the process is
// interrupted.
func runHeadless(cfg *config.Config, opts sim.Options) {
	world, err := sim.NewWorld(cfg, opts)
	if err != nil {
		slog.Error("failed to create world", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting headless simulation",
		"variant", cfg.Run.Variant,
		"discipline", cfg.Run.Discipline,
		"seed", opts.Seed,
		"agents", world.Len(),
	)

	outcome, runErr := world.Run(ctx)
	if err := world.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if runErr != nil {
		slog.Error("run interrupted", "tick", outcome.Tick, "error", runErr)
		os.Exit(1)
	}
}
