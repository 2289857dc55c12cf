package sim

import (
	"log/slog"

	"github.com/windstorm12/emergent-systems-lab/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles milestones.
func (w *World) flushTelemetry() {
	if !w.collector.ShouldFlush(w.tick) {
		return
	}
	w.flushWindow()
}

// flushWindow closes the current stats window unconditionally.
func (w *World) flushWindow() {
	stats := w.collector.Flush(w.tick, w.sampleAgents())
	perfStats := w.perfCollector.Stats()

	if w.statsCallback != nil {
		w.statsCallback(stats)
	}

	if w.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if w.outputManager != nil {
		if err := w.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := w.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, m := range w.milestones.Check(stats) {
		if w.logStats {
			m.LogMilestone()
		}
		if w.outputManager != nil {
			if err := w.outputManager.WriteMilestone(m); err != nil {
				slog.Error("failed to write milestone", "error", err)
			}
		}
	}
}

// sampleAgents collects per-agent state for the window stats.
func (w *World) sampleAgents() []telemetry.AgentSample {
	w.samples = w.samples[:0]
	for i := range w.pool {
		b := &w.pool[i]
		s := telemetry.AgentSample{VelX: b.Vel.X, VelY: b.Vel.Y}
		if w.isAssembly() {
			s.Phase = b.Phase()
			s.DistToTarget = b.DistToTarget()
		}
		w.samples = append(w.samples, s)
	}
	return w.samples
}

// finish flushes the partial last window and reports the outcome.
func (w *World) finish() {
	if w.collector.HasPending(w.tick) {
		w.flushWindow()
	}

	attrs := []any{
		"status", w.outcome.Status.String(),
		"tick", w.outcome.Tick,
		"agents", len(w.entities),
	}
	if w.arrivals != nil {
		summary := w.arrivals.Summary()
		attrs = append(attrs, "locked", w.locked, "arrivals", summary)
		if err := w.outputManager.WriteArrivals(w.arrivals.All()); err != nil {
			slog.Error("failed to write arrivals", "error", err)
		}
	}

	if w.outcome.Status == StatusTimedOut {
		slog.Warn("run timed out", attrs...)
		return
	}
	slog.Info("run finished", attrs...)
}
