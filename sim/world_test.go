package sim

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/windstorm12/emergent-systems-lab/components"
	"github.com/windstorm12/emergent-systems-lab/config"
	"github.com/windstorm12/emergent-systems-lab/telemetry"
)

const speedTol = 1e-9

func flockingConfig(t *testing.T, count, ticks int) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Run.Variant = config.VariantFlocking
	cfg.Flocking.Count = count
	cfg.Flocking.Ticks = ticks
	require.NoError(t, cfg.Refresh())
	return cfg
}

func assemblyConfig(t *testing.T, count, maxTicks int) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Run.Variant = config.VariantAssembly
	cfg.Assembly.Count = count
	cfg.Assembly.MaxTicks = maxTicks
	require.NoError(t, cfg.Refresh())
	return cfg
}

func newTestWorld(t *testing.T, cfg *config.Config, opts Options) *World {
	t.Helper()
	w, err := NewWorld(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestNewWorldRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Variant = "swarm"
	_, err := NewWorld(cfg, Options{})
	assert.Error(t, err)
}

func TestSpawnRespectsConfig(t *testing.T) {
	t.Run("flocking", func(t *testing.T) {
		cfg := flockingConfig(t, 100, 1)
		w := newTestWorld(t, cfg, Options{Seed: 3})

		require.Equal(t, 100, w.Len())
		assert.Nil(t, w.Targets())
		for _, v := range w.View() {
			assert.GreaterOrEqual(t, v.X, 0.0)
			assert.Less(t, v.X, cfg.Flocking.Width)
			assert.Equal(t, components.PhaseFree, v.Phase)

			d, ok := w.Inspect(v.ID)
			require.True(t, ok)
			assert.LessOrEqual(t, math.Abs(d.Velocity.X), cfg.Flocking.InitialSpeed)
			assert.LessOrEqual(t, math.Abs(d.Velocity.Y), cfg.Flocking.InitialSpeed)
		}
	})

	t.Run("assembly", func(t *testing.T) {
		cfg := assemblyConfig(t, 50, 10)
		w := newTestWorld(t, cfg, Options{Seed: 3})

		require.Len(t, w.Targets(), 50)
		for i, v := range w.View() {
			assert.Equal(t, uint32(i), v.ID)
			assert.Equal(t, components.PhaseSeeking, v.Phase)
			assert.GreaterOrEqual(t, v.X, cfg.Assembly.Spawn.MinX)
			assert.LessOrEqual(t, v.X, cfg.Assembly.Spawn.MaxX)

			d, ok := w.Inspect(v.ID)
			require.True(t, ok)
			assert.Zero(t, d.Velocity)
			assert.InDelta(t, 150, math.Hypot(d.Target.X, d.Target.Y), 1e-9)
		}
	})
}

func TestUpdateDisciplines(t *testing.T) {
	// Agent 0 moves into agent 1's perception radius during the tick. Only the
	// semi-synchronous discipline lets agent 1 react within the same tick.
	agents := []AgentSpec{
		{Pos: r2.Vec{X: 100, Y: 100}, Vel: r2.Vec{X: 4, Y: 0}},
		{Pos: r2.Vec{X: 153, Y: 100}},
	}

	tests := []struct {
		discipline string
		wantMoved  bool
	}{
		{config.DisciplineSemiSynchronous, true},
		{config.DisciplineSynchronous, false},
	}

	for _, tc := range tests {
		t.Run(tc.discipline, func(t *testing.T) {
			cfg := flockingConfig(t, 0, 1)
			cfg.Run.Discipline = tc.discipline
			w := newTestWorld(t, cfg, Options{Agents: agents})

			w.Step()
			view := w.View()
			assert.InDelta(t, 104, view[0].X, 1e-12)
			if tc.wantMoved {
				assert.Greater(t, view[1].X, 153.0)
			} else {
				assert.Equal(t, 153.0, view[1].X)
			}
		})
	}
}

func TestFixedSeedIsDeterministic(t *testing.T) {
	for _, variant := range []string{config.VariantFlocking, config.VariantAssembly} {
		t.Run(variant, func(t *testing.T) {
			run := func(seed int64) []AgentView {
				cfg := flockingConfig(t, 60, 50)
				if variant == config.VariantAssembly {
					cfg = assemblyConfig(t, 30, 50)
				}
				w := newTestWorld(t, cfg, Options{Seed: seed})
				_, err := w.Run(context.Background())
				require.NoError(t, err)
				return w.View()
			}

			a, b := run(11), run(11)
			assert.Equal(t, a, b)

			c := run(12)
			assert.NotEqual(t, a, c)
		})
	}
}

func TestParallelSynchronousMatchesSerial(t *testing.T) {
	run := func(workers int) []AgentView {
		cfg := flockingConfig(t, 200, 30)
		cfg.Run.Discipline = config.DisciplineSynchronous
		cfg.Run.Workers = workers
		require.NoError(t, cfg.Refresh())

		w := newTestWorld(t, cfg, Options{Seed: 5})
		_, err := w.Run(context.Background())
		require.NoError(t, err)
		return w.View()
	}

	assert.Equal(t, run(1), run(4))
}

func TestGridIndexMatchesNaive(t *testing.T) {
	for _, variant := range []string{config.VariantFlocking, config.VariantAssembly} {
		t.Run(variant, func(t *testing.T) {
			run := func(index string) []AgentView {
				cfg := flockingConfig(t, 150, 3)
				if variant == config.VariantAssembly {
					cfg = assemblyConfig(t, 150, 3)
				}
				cfg.Run.NeighborIndex = index
				require.NoError(t, cfg.Refresh())

				w := newTestWorld(t, cfg, Options{Seed: 9})
				_, err := w.Run(context.Background())
				require.NoError(t, err)
				return w.View()
			}

			naive, grid := run(config.IndexNaive), run(config.IndexGrid)
			require.Len(t, grid, len(naive))
			for i := range naive {
				assert.InDelta(t, naive[i].X, grid[i].X, 1e-6)
				assert.InDelta(t, naive[i].Y, grid[i].Y, 1e-6)
				assert.Equal(t, naive[i].Phase, grid[i].Phase)
			}
		})
	}
}

func TestFlockingInvariants(t *testing.T) {
	for _, discipline := range []string{config.DisciplineSemiSynchronous, config.DisciplineSynchronous} {
		t.Run(discipline, func(t *testing.T) {
			cfg := flockingConfig(t, 100, 200)
			cfg.Run.Discipline = discipline
			w := newTestWorld(t, cfg, Options{Seed: 42})

			for !w.Outcome().Done() {
				w.Step()
				for _, v := range w.View() {
					require.GreaterOrEqual(t, v.X, 0.0)
					require.Less(t, v.X, cfg.Flocking.Width)
					require.GreaterOrEqual(t, v.Y, 0.0)
					require.Less(t, v.Y, cfg.Flocking.Height)

					d, _ := w.Inspect(v.ID)
					speed := math.Hypot(d.Velocity.X, d.Velocity.Y)
					require.LessOrEqual(t, speed, cfg.Flocking.MaxSpeed+speedTol, "agent %d tick %d", v.ID, w.Tick())
				}
			}

			assert.Equal(t, Outcome{Status: StatusCompleted, Tick: 200}, w.Outcome())
		})
	}
}

func TestLoneBoidKeepsVelocity(t *testing.T) {
	cfg := flockingConfig(t, 0, 10)
	w := newTestWorld(t, cfg, Options{Agents: []AgentSpec{
		{Pos: r2.Vec{X: 10, Y: 10}, Vel: r2.Vec{X: -3, Y: 1}},
	}})

	_, err := w.Run(context.Background())
	require.NoError(t, err)

	d, ok := w.Inspect(0)
	require.True(t, ok)
	assert.Equal(t, components.Velocity{X: -3, Y: 1}, d.Velocity)
	// ten steps of (-3,1) from (10,10) wraps x to 780
	assert.InDelta(t, 780, d.Position.X, 1e-9)
	assert.InDelta(t, 20, d.Position.Y, 1e-9)
}

func TestAssemblyInvariants(t *testing.T) {
	for _, discipline := range []string{config.DisciplineSemiSynchronous, config.DisciplineSynchronous} {
		t.Run(discipline, func(t *testing.T) {
			cfg := assemblyConfig(t, 50, 600)
			cfg.Run.Discipline = discipline
			require.NoError(t, cfg.Refresh())
			w := newTestWorld(t, cfg, Options{Seed: 1})

			a := cfg.Assembly
			prev := make([]components.Assembly, w.Len())
			lockedAt := make([]components.Position, w.Len())

			for !w.Outcome().Done() {
				w.Step()
				for id := range prev {
					d, ok := w.Inspect(uint32(id))
					require.True(t, ok)
					st := *d.Assembly

					// monotone flags
					if prev[id].Locked {
						require.True(t, st.Locked, "agent %d unlocked", id)
						require.Equal(t, lockedAt[id], d.Position, "locked agent %d moved", id)
					}
					if prev[id].Precision {
						require.True(t, st.Precision || st.Locked, "agent %d left precision", id)
					}

					speed := math.Hypot(d.Velocity.X, d.Velocity.Y)
					switch st.Phase() {
					case components.PhaseLocked:
						require.Equal(t, d.Target.X, d.Position.X)
						require.Equal(t, d.Target.Y, d.Position.Y)
						require.Zero(t, speed)
						lockedAt[id] = d.Position
					case components.PhasePrecision:
						require.LessOrEqual(t, speed, a.Precision.MaxSpeed+speedTol)
					default:
						require.LessOrEqual(t, speed, a.Seeking.MaxSpeed+speedTol)
					}

					require.GreaterOrEqual(t, d.Position.X, a.Bounds.MinX)
					require.LessOrEqual(t, d.Position.X, a.Bounds.MaxX)
					require.GreaterOrEqual(t, d.Position.Y, a.Bounds.MinY)
					require.LessOrEqual(t, d.Position.Y, a.Bounds.MaxY)

					prev[id] = st
				}
			}

			assert.Positive(t, w.Locked())
		})
	}
}

func TestSingleAgentConverges(t *testing.T) {
	cfg := assemblyConfig(t, 0, 200)
	w := newTestWorld(t, cfg, Options{Agents: []AgentSpec{
		{Pos: r2.Vec{X: 100, Y: 0}, Target: r2.Vec{X: 0, Y: 0}},
	}})

	out, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, out.Status)
	assert.Less(t, out.Tick, int32(200))

	d, _ := w.Inspect(0)
	assert.Equal(t, components.Position{X: 0, Y: 0}, d.Position)
	assert.Equal(t, components.Velocity{}, d.Velocity)

	arrival := w.Arrivals().Get(0)
	require.NotNil(t, arrival)
	assert.Equal(t, out.Tick, arrival.LockTick)
	assert.Positive(t, arrival.PrecisionTick)
	assert.Less(t, arrival.PrecisionTick, arrival.LockTick)
}

func TestSharedTargetStaggeredArrival(t *testing.T) {
	cfg := assemblyConfig(t, 0, 1000)
	w := newTestWorld(t, cfg, Options{Agents: []AgentSpec{
		{Pos: r2.Vec{X: 40, Y: 0}, Target: r2.Vec{X: 0, Y: 0}},
		{Pos: r2.Vec{X: -200, Y: 0}, Target: r2.Vec{X: 0, Y: 0}},
	}})

	out, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, out.Status)
	assert.Equal(t, 2, w.Locked())
	for _, v := range w.View() {
		assert.Equal(t, components.PhaseLocked, v.Phase)
		assert.Equal(t, 0.0, v.X)
		assert.Equal(t, 0.0, v.Y)
	}
}

func TestSharedTargetSymmetricArrival(t *testing.T) {
	starts := []struct {
		name string
		a, b r2.Vec
	}{
		{"opposite", r2.Vec{X: 100, Y: 0}, r2.Vec{X: -100, Y: 0}},
		{"perpendicular", r2.Vec{X: 100, Y: 0}, r2.Vec{X: 0, Y: 100}},
	}

	for _, discipline := range []string{config.DisciplineSemiSynchronous, config.DisciplineSynchronous} {
		for _, st := range starts {
			t.Run(discipline+"/"+st.name, func(t *testing.T) {
				cfg := assemblyConfig(t, 0, 3000)
				cfg.Run.Discipline = discipline
				require.NoError(t, cfg.Refresh())
				w := newTestWorld(t, cfg, Options{Agents: []AgentSpec{
					{Pos: st.a, Target: r2.Vec{}},
					{Pos: st.b, Target: r2.Vec{}},
				}})

				out, err := w.Run(context.Background())
				require.NoError(t, err)
				assert.Equal(t, StatusConverged, out.Status)
				assert.Equal(t, 2, w.Locked())
				for _, v := range w.View() {
					assert.Equal(t, components.PhaseLocked, v.Phase)
					assert.Equal(t, 0.0, v.X)
					assert.Equal(t, 0.0, v.Y)
				}
			})
		}
	}
}

func TestSynchronousLowestIDLocksFirst(t *testing.T) {
	cfg := assemblyConfig(t, 0, 3000)
	cfg.Run.Discipline = config.DisciplineSynchronous
	require.NoError(t, cfg.Refresh())
	w := newTestWorld(t, cfg, Options{Agents: []AgentSpec{
		{Pos: r2.Vec{X: 100, Y: 0}, Target: r2.Vec{}},
		{Pos: r2.Vec{X: -100, Y: 0}, Target: r2.Vec{}},
	}})

	_, err := w.Run(context.Background())
	require.NoError(t, err)

	// agent 0 has right of way and takes the same path as a lone agent
	lone := newTestWorld(t, assemblyConfig(t, 0, 3000), Options{Agents: []AgentSpec{
		{Pos: r2.Vec{X: 100, Y: 0}, Target: r2.Vec{}},
	}})
	alone, err := lone.Run(context.Background())
	require.NoError(t, err)

	first, second := w.Arrivals().Get(0), w.Arrivals().Get(1)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, alone.Tick, first.LockTick)
	assert.Greater(t, second.LockTick, first.LockTick)
}

func TestAssemblyTimesOut(t *testing.T) {
	cfg := assemblyConfig(t, 20, 5)
	w := newTestWorld(t, cfg, Options{Seed: 2})

	out, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Outcome{Status: StatusTimedOut, Tick: 5}, out)

	// terminal outcome is sticky
	assert.Equal(t, out, w.Step())
	assert.Equal(t, int32(5), w.Tick())
}

func TestEmptyAssemblyIsConverged(t *testing.T) {
	cfg := assemblyConfig(t, 0, 100)
	w := newTestWorld(t, cfg, Options{})

	assert.Equal(t, Outcome{Status: StatusConverged, Tick: 0}, w.Outcome())
	assert.Equal(t, int32(0), w.Step().Tick)
	assert.Empty(t, w.View())
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := flockingConfig(t, 10, 1000)
	w := newTestWorld(t, cfg, Options{Seed: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusRunning, out.Status)
	assert.Equal(t, int32(0), w.Tick())
}

func TestStatsCallbackWindows(t *testing.T) {
	cfg := flockingConfig(t, 30, 120)
	cfg.Telemetry.StatsWindow = 50
	require.NoError(t, cfg.Refresh())

	var ends []int32
	w := newTestWorld(t, cfg, Options{Seed: 4, StatsCallback: func(s telemetry.WindowStats) {
		ends = append(ends, s.WindowEndTick)
		assert.Equal(t, 30, s.Agents)
		assert.GreaterOrEqual(t, s.Polarization, 0.0)
		assert.LessOrEqual(t, s.Polarization, 1.0+1e-9)
	}})

	_, err := w.Run(context.Background())
	require.NoError(t, err)
	// two full windows plus the partial one flushed at completion
	assert.Equal(t, []int32{50, 100, 120}, ends)
}

func TestWorldRunInfo(t *testing.T) {
	cfg := assemblyConfig(t, 5, 10)
	w := newTestWorld(t, cfg, Options{Seed: 77})
	assert.Equal(t, int64(77), w.Seed())
	assert.Empty(t, w.OutputDir())

	dir := filepath.Join(t.TempDir(), "run")
	w = newTestWorld(t, cfg, Options{Seed: 78, OutputDir: dir})
	assert.Equal(t, dir, w.OutputDir())
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
}

func TestNearest(t *testing.T) {
	cfg := flockingConfig(t, 0, 1)
	w := newTestWorld(t, cfg, Options{Agents: []AgentSpec{
		{Pos: r2.Vec{X: 10, Y: 10}},
		{Pos: r2.Vec{X: 50, Y: 50}},
	}})

	id, ok := w.Nearest(r2.Vec{X: 45, Y: 52}, 20)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), id)

	_, ok = w.Nearest(r2.Vec{X: 300, Y: 300}, 20)
	assert.False(t, ok)
}
