package telemetry

import (
	"testing"
	"time"
)

func TestStepPhaseNames(t *testing.T) {
	want := []string{"snapshot", "index", "update", "apply", "telemetry"}
	order := PhaseOrder()
	if len(order) != len(want) {
		t.Fatalf("PhaseOrder() has %d phases, want %d", len(order), len(want))
	}
	for i, ph := range order {
		if ph.String() != want[i] {
			t.Errorf("phase %d = %q, want %q", i, ph, want[i])
		}
	}
	if got := StepPhase(200).String(); got != "unknown" {
		t.Errorf("out of range phase = %q", got)
	}
}

func TestPerfCollector_StepPhases(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSnapshot)
		time.Sleep(20 * time.Microsecond)
		pc.StartPhase(PhaseIndex)
		pc.StartPhase(PhaseUpdate)
		time.Sleep(2 * time.Millisecond)
		pc.StartPhase(PhaseApply)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.Samples != 5 {
		t.Errorf("Samples = %d, want 5", stats.Samples)
	}
	if stats.AvgTick <= 0 {
		t.Fatal("expected positive average tick duration")
	}
	if stats.PhaseAvg[PhaseUpdate] < 2*time.Millisecond {
		t.Errorf("update avg = %v, want >= 2ms", stats.PhaseAvg[PhaseUpdate])
	}
	if stats.PhaseAvg[PhaseTelemetry] != 0 {
		t.Errorf("telemetry never ran, avg = %v", stats.PhaseAvg[PhaseTelemetry])
	}
	if got := stats.Bottleneck(); got != PhaseUpdate {
		t.Errorf("Bottleneck() = %v, want update", got)
	}

	var total float64
	for _, ph := range PhaseOrder() {
		total += stats.PhasePct[ph]
	}
	if total > 100.01 {
		t.Errorf("phase shares sum to %.2f%%, want <= 100", total)
	}

	row := stats.ToCSV(50)
	if row.WindowEnd != 50 || row.Samples != 5 {
		t.Errorf("row = %+v", row)
	}
	if row.UpdatePct != stats.PhasePct[PhaseUpdate] || row.Bottleneck != "update" {
		t.Errorf("row phases = %+v", row)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 12; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseIndex)
		time.Sleep(10 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.Samples != 5 {
		t.Errorf("Samples = %d, want window size 5", stats.Samples)
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
	if stats.MinTick > stats.AvgTick || stats.AvgTick > stats.MaxTick {
		t.Errorf("want min %v <= avg %v <= max %v", stats.MinTick, stats.AvgTick, stats.MaxTick)
	}
	if stats.P95Tick < stats.MinTick || stats.P95Tick > stats.MaxTick {
		t.Errorf("p95 %v outside [%v, %v]", stats.P95Tick, stats.MinTick, stats.MaxTick)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.Samples != 0 || stats.AvgTick != 0 || stats.P95Tick != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
	if stats.Bottleneck() != PhaseSnapshot {
		t.Errorf("Bottleneck() on empty = %v", stats.Bottleneck())
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 {
		t.Error("expected positive FPS")
	}
}
