// Package sim owns the agent world and advances it tick by tick.
// It has no rendering dependencies; viewers read it through View and Targets.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/windstorm12/emergent-systems-lab/components"
	"github.com/windstorm12/emergent-systems-lab/config"
	"github.com/windstorm12/emergent-systems-lab/systems"
	"github.com/windstorm12/emergent-systems-lab/telemetry"
)

// Status is the termination state of a run.
type Status uint8

const (
	StatusRunning   Status = iota
	StatusCompleted        // flocking: tick budget used up
	StatusConverged        // self-assembly: every agent locked
	StatusTimedOut         // self-assembly: tick budget used up before convergence
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusConverged:
		return "converged"
	case StatusTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Outcome reports the run state after a tick.
type Outcome struct {
	Status Status
	Tick   int32
}

// Done reports whether the run has terminated.
func (o Outcome) Done() bool {
	return o.Status != StatusRunning
}

// AgentSpec places one agent explicitly. Target is ignored for flocking.
type AgentSpec struct {
	Pos    r2.Vec
	Vel    r2.Vec
	Target r2.Vec
}

// Options configures a World.
type Options struct {
	Seed          int64  // RNG seed for spawning
	LogStats      bool   // log window stats and milestones via slog
	OutputDir     string // write CSV telemetry here; empty disables output
	StatsCallback func(telemetry.WindowStats)

	// Agents replaces random spawning when non-nil. Targets come from the
	// specs instead of the configured layout.
	Agents []AgentSpec
}

// World holds the agent entities and the per-tick working state.
type World struct {
	cfg  *config.Config
	rng  *rand.Rand
	seed int64

	world *ecs.World

	// Entity mappers
	kinematicMapper *ecs.Map3[components.Position, components.Velocity, components.Agent]
	assemblyMapper  *ecs.Map5[components.Position, components.Velocity, components.Agent, components.Target, components.Assembly]
	agentFilter     *ecs.Filter3[components.Position, components.Velocity, components.Agent]

	// Individual component mappers for lookups
	posMap      *ecs.Map[components.Position]
	velMap      *ecs.Map[components.Velocity]
	targetMap   *ecs.Map[components.Target]
	assemblyMap *ecs.Map[components.Assembly]

	// entities[i] is the entity with agent ID i
	entities []ecs.Entity
	targets  []r2.Vec

	// Per-tick working state
	pool     []systems.Body
	prevPos  []r2.Vec
	intents  []intent
	index    systems.NeighborIndex
	model    model
	scratch  workerScratch
	parallel *parallelState
	sync     bool

	tick    int32
	locked  int
	outcome Outcome

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	milestones    *telemetry.MilestoneDetector
	arrivals      *telemetry.ArrivalTracker
	outputManager *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)
	samples       []telemetry.AgentSample
}

// NewWorld builds a world from cfg and spawns its agents.
// cfg is treated as read-only for the lifetime of the world.
func NewWorld(cfg *config.Config, opts Options) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	world := ecs.NewWorld()
	w := &World{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		seed:  opts.Seed,
		world: world,
		kinematicMapper: ecs.NewMap3[
			components.Position,
			components.Velocity,
			components.Agent,
		](world),
		assemblyMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Agent,
			components.Target,
			components.Assembly,
		](world),
		agentFilter: ecs.NewFilter3[
			components.Position,
			components.Velocity,
			components.Agent,
		](world),
		posMap:      ecs.NewMap[components.Position](world),
		velMap:      ecs.NewMap[components.Velocity](world),
		targetMap:   ecs.NewMap[components.Target](world),
		assemblyMap: ecs.NewMap[components.Assembly](world),
		sync:        cfg.Run.Discipline == config.DisciplineSynchronous,
		logStats:    opts.LogStats,
	}

	w.model = newModel(cfg)
	w.index = newNeighborIndex(cfg)

	specs := opts.Agents
	if specs == nil {
		var err error
		specs, err = w.spawnSpecs()
		if err != nil {
			return nil, err
		}
	}
	w.spawn(specs)

	n := len(w.entities)
	w.pool = make([]systems.Body, n)
	w.prevPos = make([]r2.Vec, n)
	w.intents = make([]intent, n)
	w.scratch.neighbors = make([]systems.Neighbor, 0, 64)
	if w.sync {
		w.parallel = newParallelState(cfg.Run.Workers)
	}

	// Telemetry
	tcfg := cfg.Telemetry
	w.collector = telemetry.NewCollector(cfg.Run.Variant, int32(tcfg.StatsWindow))
	w.perfCollector = telemetry.NewPerfCollector(tcfg.PerfCollectorWindow)
	w.milestones = telemetry.NewMilestoneDetector(10, tcfg.PolarizationMilestone)
	w.statsCallback = opts.StatsCallback
	if w.isAssembly() {
		w.arrivals = telemetry.NewArrivalTracker()
		for i, e := range w.entities {
			pos := w.posMap.Get(e)
			t := w.targets[i]
			w.arrivals.Register(uint32(i), r2.Norm(r2.Sub(t, r2.Vec{X: pos.X, Y: pos.Y})))
		}
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if om != nil {
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			return nil, fmt.Errorf("writing config snapshot: %w", err)
		}
	}
	w.outputManager = om

	w.outcome = w.evaluate()

	slog.Info("world created",
		"variant", cfg.Run.Variant,
		"agents", n,
		"seed", opts.Seed,
		"discipline", cfg.Run.Discipline,
		"neighbor_index", cfg.Run.NeighborIndex,
	)

	return w, nil
}

// spawn creates one entity per spec, assigning IDs in order.
func (w *World) spawn(specs []AgentSpec) {
	w.entities = make([]ecs.Entity, 0, len(specs))
	w.targets = w.targets[:0]

	for i, s := range specs {
		pos := components.Position{X: s.Pos.X, Y: s.Pos.Y}
		vel := components.Velocity{X: s.Vel.X, Y: s.Vel.Y}
		agent := components.Agent{ID: uint32(i)}

		var e ecs.Entity
		if w.isAssembly() {
			target := components.Target{X: s.Target.X, Y: s.Target.Y}
			e = w.assemblyMapper.NewEntity(&pos, &vel, &agent, &target, &components.Assembly{})
			w.targets = append(w.targets, s.Target)
		} else {
			e = w.kinematicMapper.NewEntity(&pos, &vel, &agent)
		}
		w.entities = append(w.entities, e)
	}
}

func (w *World) isAssembly() bool {
	return w.cfg.Run.Variant == config.VariantAssembly
}

// newNeighborIndex selects the neighbor query backend.
func newNeighborIndex(cfg *config.Config) systems.NeighborIndex {
	if cfg.Run.NeighborIndex != config.IndexGrid {
		return systems.BruteForce{}
	}
	cell := cfg.Derived.CellSize
	if cell <= 0 {
		cell = cfg.Derived.MaxQueryRadius
	}
	if cfg.Run.Variant == config.VariantFlocking {
		return systems.NewSpatialGrid(0, 0, cfg.Flocking.Width, cfg.Flocking.Height, cell)
	}
	b := cfg.Assembly.Bounds
	return systems.NewSpatialGrid(b.MinX, b.MinY, b.MaxX, b.MaxY, cell)
}

// Close stops worker goroutines and flushes output files.
func (w *World) Close() error {
	if w.parallel != nil {
		w.parallel.stopWorkers()
	}
	return w.outputManager.Close()
}

// Config returns the configuration the world was built with.
func (w *World) Config() *config.Config { return w.cfg }

// Seed returns the spawn seed.
func (w *World) Seed() int64 { return w.seed }

// OutputDir returns the telemetry directory, or "" when output is disabled.
func (w *World) OutputDir() string { return w.outputManager.Dir() }

// Tick returns the number of completed ticks.
func (w *World) Tick() int32 { return w.tick }

// Outcome returns the run state after the last tick.
func (w *World) Outcome() Outcome { return w.outcome }

// Len returns the number of agents.
func (w *World) Len() int { return len(w.entities) }

// Locked returns the number of locked agents.
func (w *World) Locked() int { return w.locked }

// Arrivals returns per-agent arrival stats, or nil for flocking.
func (w *World) Arrivals() *telemetry.ArrivalTracker { return w.arrivals }

// Perf returns the rolling step timing.
func (w *World) Perf() *telemetry.PerfCollector { return w.perfCollector }
