package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// StepPhase identifies one stage of a simulation tick.
type StepPhase uint8

// Step phases in execution order.
const (
	PhaseSnapshot StepPhase = iota
	PhaseIndex
	PhaseUpdate
	PhaseApply
	PhaseTelemetry

	numPhases
)

var phaseNames = [numPhases]string{"snapshot", "index", "update", "apply", "telemetry"}

func (p StepPhase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// PhaseOrder returns the step phases in execution order.
func PhaseOrder() []StepPhase {
	return []StepPhase{PhaseSnapshot, PhaseIndex, PhaseUpdate, PhaseApply, PhaseTelemetry}
}

// PhaseTimes holds one duration per step phase.
type PhaseTimes [numPhases]time.Duration

// PerfSample holds the timing of a single tick.
type PerfSample struct {
	Tick   time.Duration
	Phases PhaseTimes
}

// PerfCollector keeps a ring of the last windowSize tick samples.
type PerfCollector struct {
	samples []PerfSample
	next    int
	count   int

	current    PhaseTimes
	tickStart  time.Time
	phaseStart time.Time
	phase      StepPhase
	inPhase    bool

	lastFrame     time.Time
	frameDuration time.Duration

	scratch []float64
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples: make([]PerfSample, windowSize),
		scratch: make([]float64, 0, windowSize),
	}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = PhaseTimes{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase StepPhase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase < numPhases {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick closes the running phase and records the tick.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)

	p.samples[p.next] = PerfSample{Tick: now.Sub(p.tickStart), Phases: p.current}
	p.next = (p.next + 1) % len(p.samples)
	if p.count < len(p.samples) {
		p.count++
	}
}

// RecordFrame records the interval since the previous rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDuration = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats aggregates the samples currently in the window.
type PerfStats struct {
	Samples int

	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration
	P95Tick time.Duration

	PhaseAvg PhaseTimes
	PhasePct [numPhases]float64 // share of the average tick, in percent

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Bottleneck returns the phase with the largest average duration.
func (s PerfStats) Bottleneck() StepPhase {
	best := PhaseSnapshot
	for _, ph := range PhaseOrder() {
		if s.PhaseAvg[ph] > s.PhaseAvg[best] {
			best = ph
		}
	}
	return best
}

// Stats computes statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Samples: p.count, FrameDuration: p.frameDuration}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.count == 0 {
		return s
	}

	p.scratch = p.scratch[:0]
	var sum PhaseTimes
	for i, smp := range p.samples[:p.count] {
		p.scratch = append(p.scratch, float64(smp.Tick))
		if i == 0 || smp.Tick < s.MinTick {
			s.MinTick = smp.Tick
		}
		s.MaxTick = max(s.MaxTick, smp.Tick)
		for ph, d := range smp.Phases {
			sum[ph] += d
		}
	}

	s.AvgTick = time.Duration(stat.Mean(p.scratch, nil))
	sort.Float64s(p.scratch)
	s.P95Tick = time.Duration(stat.Quantile(0.95, stat.Empirical, p.scratch, nil))

	n := time.Duration(p.count)
	for ph := range sum {
		s.PhaseAvg[ph] = sum[ph] / n
		if s.AvgTick > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTick) * 100
		}
	}
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}
	return s
}

// LogStats logs the window at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("samples", s.Samples),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
		slog.String("bottleneck", s.Bottleneck().String()),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, ph := range PhaseOrder() {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	Samples      int     `csv:"samples"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	Bottleneck   string  `csv:"bottleneck"`
	SnapshotPct  float64 `csv:"snapshot_pct"`
	IndexPct     float64 `csv:"index_pct"`
	UpdatePct    float64 `csv:"update_pct"`
	ApplyPct     float64 `csv:"apply_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		Samples:      s.Samples,
		AvgTickUS:    s.AvgTick.Microseconds(),
		MinTickUS:    s.MinTick.Microseconds(),
		P95TickUS:    s.P95Tick.Microseconds(),
		MaxTickUS:    s.MaxTick.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		Bottleneck:   s.Bottleneck().String(),
		SnapshotPct:  s.PhasePct[PhaseSnapshot],
		IndexPct:     s.PhasePct[PhaseIndex],
		UpdatePct:    s.PhasePct[PhaseUpdate],
		ApplyPct:     s.PhasePct[PhaseApply],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
