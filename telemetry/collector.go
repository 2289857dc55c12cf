package telemetry

import (
	"math"

	"github.com/windstorm12/emergent-systems-lab/components"
)

// AgentSample is the per-agent state sampled when a window is flushed.
type AgentSample struct {
	VelX, VelY   float64
	DistToTarget float64
	Phase        components.Phase
}

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	variant             string
	windowDurationTicks int32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	precisionEntries int
	locks            int
	neighborSum      int
	updates          int

	// Reused across flushes
	speeds []float64
	vx, vy []float64
	dists  []float64
}

// NewCollector creates a new stats collector flushing every windowTicks ticks.
func NewCollector(variant string, windowTicks int32) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		variant:             variant,
		windowDurationTicks: windowTicks,
	}
}

// RecordPrecision records an agent entering precision mode.
func (c *Collector) RecordPrecision() {
	c.precisionEntries++
}

// RecordLock records an agent locking onto its target.
func (c *Collector) RecordLock() {
	c.locks++
}

// RecordNeighbors records the neighbor count seen by one agent update.
func (c *Collector) RecordNeighbors(n int) {
	c.neighborSum += n
	c.updates++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// HasPending reports whether ticks were recorded since the last flush.
func (c *Collector) HasPending(currentTick int32) bool {
	return currentTick > c.windowStartTick
}

// Flush produces a WindowStats from the agent samples and resets counters
// for the next window.
func (c *Collector) Flush(currentTick int32, agents []AgentSample) WindowStats {
	c.speeds = c.speeds[:0]
	c.vx = c.vx[:0]
	c.vy = c.vy[:0]
	c.dists = c.dists[:0]

	stats := WindowStats{
		WindowStartTick:  c.windowStartTick,
		WindowEndTick:    currentTick,
		Variant:          c.variant,
		Agents:           len(agents),
		PrecisionEntries: c.precisionEntries,
		Locks:            c.locks,
	}

	for _, a := range agents {
		c.vx = append(c.vx, a.VelX)
		c.vy = append(c.vy, a.VelY)
		c.speeds = append(c.speeds, math.Hypot(a.VelX, a.VelY))

		switch a.Phase {
		case components.PhaseSeeking:
			stats.Seeking++
		case components.PhasePrecision:
			stats.Precision++
		case components.PhaseLocked:
			stats.Locked++
		}
		if a.Phase == components.PhaseSeeking || a.Phase == components.PhasePrecision {
			c.dists = append(c.dists, a.DistToTarget)
		}
	}

	stats.Polarization = Polarization(c.vx, c.vy)
	stats.SpeedMean, stats.SpeedP50, stats.SpeedP90, stats.SpeedMax = ComputeDistribution(c.speeds)
	stats.DistMean, stats.DistStd, stats.DistMax = ComputeSpread(c.dists)
	if c.updates > 0 {
		stats.NeighborsMean = float64(c.neighborSum) / float64(c.updates)
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.precisionEntries = 0
	c.locks = 0
	c.neighborSum = 0
	c.updates = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
