package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int32  `csv:"-"`
	WindowEndTick   int32  `csv:"window_end"`
	Variant         string `csv:"variant"`

	Agents int `csv:"agents"`

	// Kinematics sampled at window end
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Flock order parameter: |mean unit heading| of moving agents, in [0,1]
	Polarization float64 `csv:"polarization"`

	// Neighbor counts averaged over every agent update in the window
	NeighborsMean float64 `csv:"neighbors_mean"`

	// Phase counts at window end
	Seeking   int `csv:"seeking"`
	Precision int `csv:"precision"`
	Locked    int `csv:"locked"`

	// Transitions during window
	PrecisionEntries int `csv:"precision_entries"`
	Locks            int `csv:"locks"`

	// Distance to target over unlocked agents
	DistMean float64 `csv:"dist_mean"`
	DistStd  float64 `csv:"dist_std"`
	DistMax  float64 `csv:"dist_max"`
}

// LockedFraction returns the share of agents resting on their target.
func (s WindowStats) LockedFraction() float64 {
	if s.Agents == 0 {
		return 0
	}
	return float64(s.Locked) / float64(s.Agents)
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation between closest ranks
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean, median, p90 and max of values.
// values is sorted in place.
func ComputeDistribution(values []float64) (mean, p50, p90, maxV float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sort.Float64s(values)
	p50 = Percentile(values, 0.50)
	p90 = Percentile(values, 0.90)
	maxV = values[n-1]

	return mean, p50, p90, maxV
}

// ComputeSpread calculates mean, population standard deviation and max.
func ComputeSpread(values []float64) (mean, std, maxV float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	std = math.Sqrt(variance)
	maxV = values[0]
	for _, v := range values[1:] {
		if v > maxV {
			maxV = v
		}
	}
	return mean, std, maxV
}

// Polarization returns |sum of unit headings| / moving agents.
// Stationary agents are ignored; with none moving the result is 0.
func Polarization(vx, vy []float64) float64 {
	var sx, sy float64
	var moving int
	for i := range vx {
		speed := math.Hypot(vx[i], vy[i])
		if speed == 0 {
			continue
		}
		sx += vx[i] / speed
		sy += vy[i] / speed
		moving++
	}
	if moving == 0 {
		return 0
	}
	return math.Hypot(sx, sy) / float64(moving)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.String("variant", s.Variant),
		slog.Int("agents", s.Agents),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("polarization", s.Polarization),
		slog.Float64("neighbors_mean", s.NeighborsMean),
		slog.Int("seeking", s.Seeking),
		slog.Int("precision", s.Precision),
		slog.Int("locked", s.Locked),
		slog.Int("precision_entries", s.PrecisionEntries),
		slog.Int("locks", s.Locks),
		slog.Float64("dist_mean", s.DistMean),
		slog.Float64("dist_std", s.DistStd),
		slog.Float64("dist_max", s.DistMax),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	attrs := []any{
		"window_end", s.WindowEndTick,
		"agents", s.Agents,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
		"neighbors_mean", s.NeighborsMean,
	}
	if s.Variant == "flocking" {
		attrs = append(attrs, "polarization", s.Polarization)
	} else {
		attrs = append(attrs,
			"seeking", s.Seeking,
			"precision", s.Precision,
			"locked", s.Locked,
			"locks", s.Locks,
			"dist_mean", s.DistMean,
			"dist_max", s.DistMax,
		)
	}
	slog.Info("stats", attrs...)
}
