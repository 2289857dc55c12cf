package sim

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/windstorm12/emergent-systems-lab/systems"
	"github.com/windstorm12/emergent-systems-lab/telemetry"
)

// Step advances the world by one tick and returns the resulting outcome.
// Once the outcome is terminal further calls are no-ops.
func (w *World) Step() Outcome {
	if w.outcome.Done() {
		return w.outcome
	}

	w.perfCollector.StartTick()

	w.perfCollector.StartPhase(telemetry.PhaseSnapshot)
	w.snapshot()

	w.perfCollector.StartPhase(telemetry.PhaseIndex)
	w.index.Rebuild(w.pool)

	w.perfCollector.StartPhase(telemetry.PhaseUpdate)
	if w.sync {
		w.updateSynchronous()
	} else {
		w.updateSemiSynchronous()
	}

	w.perfCollector.StartPhase(telemetry.PhaseApply)
	w.apply()
	w.tick++

	w.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	w.flushTelemetry()

	w.perfCollector.EndTick()

	w.outcome = w.evaluate()
	if w.outcome.Done() {
		w.finish()
	}
	return w.outcome
}

// Run steps until the outcome is terminal or ctx is done. Cancellation is
// only observed between ticks.
func (w *World) Run(ctx context.Context) (Outcome, error) {
	for !w.outcome.Done() {
		select {
		case <-ctx.Done():
			return w.outcome, ctx.Err()
		default:
		}
		w.Step()
	}
	return w.outcome, nil
}

// snapshot copies ECS state into the pool in agent ID order.
func (w *World) snapshot() {
	assembly := w.isAssembly()

	query := w.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, agent := query.Get()

		b := &w.pool[agent.ID]
		b.ID = agent.ID
		b.Pos = r2.Vec{X: pos.X, Y: pos.Y}
		b.Vel = r2.Vec{X: vel.X, Y: vel.Y}
		if assembly {
			t := w.targetMap.Get(entity)
			st := w.assemblyMap.Get(entity)
			b.Target = r2.Vec{X: t.X, Y: t.Y}
			b.Precision = st.Precision
			b.Locked = st.Locked
		}
		w.prevPos[agent.ID] = b.Pos
	}
}

// updateSemiSynchronous updates agents in place in ID order, so later agents
// observe the new state of earlier ones within the same tick.
func (w *World) updateSemiSynchronous() {
	for i := range w.pool {
		old := w.pool[i].Pos
		in := w.model.update(w.pool, i, w.index, &w.scratch)
		w.pool[i] = in.Body
		w.index.Moved(i, old, in.Body.Pos)
		w.intents[i] = in
	}
}

// updateSynchronous computes every agent from the tick-start pool, then
// commits all results at once.
func (w *World) updateSynchronous() {
	n := len(w.pool)
	if n == 0 {
		return
	}

	if n < parallelThreshold || w.parallel.numWorkers < 2 {
		w.computeChunk(0, n, &w.scratch)
	} else {
		w.computeParallel(n)
	}

	for i := range w.pool {
		w.pool[i] = w.intents[i].Body
	}
}

// apply writes the pool back to ECS components and records transitions
// in ID order.
func (w *World) apply() {
	assembly := w.isAssembly()
	tick := w.tick + 1

	for i, e := range w.entities {
		b := &w.pool[i]
		in := &w.intents[i]

		pos := w.posMap.Get(e)
		vel := w.velMap.Get(e)
		pos.X, pos.Y = b.Pos.X, b.Pos.Y
		vel.X, vel.Y = b.Vel.X, b.Vel.Y

		if !assembly {
			w.collector.RecordNeighbors(in.Neighbors)
			continue
		}

		st := w.assemblyMap.Get(e)
		st.Precision = b.Precision
		st.Locked = b.Locked

		w.arrivals.RecordMove(b.ID, r2.Norm(r2.Sub(b.Pos, w.prevPos[i])))
		switch in.Transition {
		case systems.TransitionPrecision:
			w.collector.RecordPrecision()
			w.arrivals.RecordPrecision(b.ID, tick)
		case systems.TransitionLocked:
			w.locked++
			w.collector.RecordLock()
			w.arrivals.RecordLock(b.ID, tick)
			slog.Debug("agent locked", "agent", b.ID, "tick", tick)
		}
		if !b.Locked {
			w.collector.RecordNeighbors(in.Neighbors)
		}
	}
}

// evaluate derives the outcome from the tick count and lock state.
func (w *World) evaluate() Outcome {
	if !w.isAssembly() {
		if int(w.tick) >= w.cfg.Flocking.Ticks {
			return Outcome{Status: StatusCompleted, Tick: w.tick}
		}
		return Outcome{Status: StatusRunning, Tick: w.tick}
	}

	if w.locked == len(w.entities) {
		return Outcome{Status: StatusConverged, Tick: w.tick}
	}
	if int(w.tick) >= w.cfg.Assembly.MaxTicks {
		return Outcome{Status: StatusTimedOut, Tick: w.tick}
	}
	return Outcome{Status: StatusRunning, Tick: w.tick}
}
