package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ArrivalStats tracks one self-assembly agent from spawn to lock.
type ArrivalStats struct {
	AgentID       uint32  `csv:"agent"`
	SpawnDist     float64 `csv:"spawn_dist"`
	PrecisionTick int32   `csv:"precision_tick"` // -1 until precision
	LockTick      int32   `csv:"lock_tick"`      // -1 until locked
	PathLength    float64 `csv:"path_length"`
}

// Efficiency returns straight-line spawn distance over travelled path.
// 1 means a perfectly direct approach.
func (a *ArrivalStats) Efficiency() float64 {
	if a.PathLength <= 0 {
		if a.SpawnDist <= 0 {
			return 1
		}
		return 0
	}
	return a.SpawnDist / a.PathLength
}

// ArrivalTracker manages per-agent arrival statistics, keyed by agent ID.
type ArrivalTracker struct {
	stats map[uint32]*ArrivalStats
}

// NewArrivalTracker creates a new arrival tracker.
func NewArrivalTracker() *ArrivalTracker {
	return &ArrivalTracker{
		stats: make(map[uint32]*ArrivalStats),
	}
}

// Register starts tracking an agent at spawn.
func (at *ArrivalTracker) Register(agentID uint32, spawnDist float64) {
	at.stats[agentID] = &ArrivalStats{
		AgentID:       agentID,
		SpawnDist:     spawnDist,
		PrecisionTick: -1,
		LockTick:      -1,
	}
}

// Get returns the stats for an agent, or nil if not tracked.
func (at *ArrivalTracker) Get(agentID uint32) *ArrivalStats {
	return at.stats[agentID]
}

// RecordMove adds a step length to the agent's path.
func (at *ArrivalTracker) RecordMove(agentID uint32, step float64) {
	if s := at.stats[agentID]; s != nil {
		s.PathLength += step
	}
}

// RecordPrecision notes the tick an agent entered precision mode.
func (at *ArrivalTracker) RecordPrecision(agentID uint32, tick int32) {
	if s := at.stats[agentID]; s != nil && s.PrecisionTick < 0 {
		s.PrecisionTick = tick
	}
}

// RecordLock notes the tick an agent locked.
func (at *ArrivalTracker) RecordLock(agentID uint32, tick int32) {
	if s := at.stats[agentID]; s != nil && s.LockTick < 0 {
		s.LockTick = tick
	}
}

// All returns tracked stats ordered by agent ID.
func (at *ArrivalTracker) All() []ArrivalStats {
	out := make([]ArrivalStats, 0, len(at.stats))
	for _, s := range at.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// Count returns the number of tracked agents.
func (at *ArrivalTracker) Count() int {
	return len(at.stats)
}

// ArrivalSummary aggregates ticks-to-lock over locked agents.
type ArrivalSummary struct {
	Agents         int
	Locked         int
	LockTickMean   float64
	LockTickP50    float64
	LockTickP90    float64
	LockTickMax    float64
	EfficiencyMean float64
}

// Summary aggregates the tracked arrivals.
func (at *ArrivalTracker) Summary() ArrivalSummary {
	s := ArrivalSummary{Agents: len(at.stats)}

	var ticks, eff []float64
	for _, a := range at.stats {
		if a.LockTick < 0 {
			continue
		}
		ticks = append(ticks, float64(a.LockTick))
		eff = append(eff, a.Efficiency())
	}
	s.Locked = len(ticks)
	if s.Locked == 0 {
		return s
	}

	s.LockTickMean, s.LockTickP50, s.LockTickP90, s.LockTickMax = ComputeDistribution(ticks)
	s.EfficiencyMean = stat.Mean(eff, nil)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s ArrivalSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("agents", s.Agents),
		slog.Int("locked", s.Locked),
		slog.Float64("lock_tick_mean", s.LockTickMean),
		slog.Float64("lock_tick_p50", s.LockTickP50),
		slog.Float64("lock_tick_p90", s.LockTickP90),
		slog.Float64("lock_tick_max", s.LockTickMax),
		slog.Float64("efficiency_mean", s.EfficiencyMean),
	)
}
