package telemetry

import (
	"fmt"
	"log/slog"
)

// MilestoneType identifies the type of milestone.
type MilestoneType string

const (
	MilestoneLockQuarter       MilestoneType = "lock_25"
	MilestoneLockHalf          MilestoneType = "lock_50"
	MilestoneLockThreeQuarters MilestoneType = "lock_75"
	MilestoneAllLocked         MilestoneType = "all_locked"
	MilestoneAssemblyStalled   MilestoneType = "assembly_stalled"
	MilestoneFlockAligned      MilestoneType = "flock_aligned"
	MilestoneFlockBroken       MilestoneType = "flock_broken"
)

// stallWindows is how many windows without a lock or approach progress
// count as a stall.
const stallWindows = 5

// Milestone represents an automatically detected moment in a run.
type Milestone struct {
	Type        MilestoneType `csv:"type"`
	Tick        int32         `csv:"tick"`
	Description string        `csv:"description"`
}

// LogMilestone logs the milestone using slog.
func (m Milestone) LogMilestone() {
	slog.Info("milestone",
		"type", string(m.Type),
		"tick", m.Tick,
		"description", m.Description,
	)
}

// MilestoneDetector detects lock-progress and flock-order milestones from
// successive WindowStats.
type MilestoneDetector struct {
	polarizationThreshold float64

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	lockFired    map[MilestoneType]bool
	aligned      bool
	stalledCount int
	stallFired   bool
}

// NewMilestoneDetector creates a detector. polarizationThreshold is the
// flock order parameter above which the flock counts as aligned.
func NewMilestoneDetector(historySize int, polarizationThreshold float64) *MilestoneDetector {
	if historySize < 2 {
		historySize = 2
	}
	return &MilestoneDetector{
		polarizationThreshold: polarizationThreshold,
		history:               make([]WindowStats, historySize),
		historySize:           historySize,
		lockFired:             make(map[MilestoneType]bool),
	}
}

// Check analyzes the latest stats and returns any triggered milestones.
func (md *MilestoneDetector) Check(stats WindowStats) []Milestone {
	var milestones []Milestone

	if stats.Variant == "flocking" {
		if m := md.checkFlockOrder(stats); m != nil {
			milestones = append(milestones, *m)
		}
	} else {
		milestones = append(milestones, md.checkLockProgress(stats)...)
		if m := md.checkStall(stats); m != nil {
			milestones = append(milestones, *m)
		}
	}

	md.addToHistory(stats)
	return milestones
}

func (md *MilestoneDetector) addToHistory(stats WindowStats) {
	md.history[md.historyIdx] = stats
	md.historyIdx = (md.historyIdx + 1) % md.historySize
	if md.historyIdx == 0 {
		md.historyFull = true
	}
}

// previous returns the most recent stats in history.
func (md *MilestoneDetector) previous() (WindowStats, bool) {
	if !md.historyFull && md.historyIdx == 0 {
		return WindowStats{}, false
	}
	idx := (md.historyIdx - 1 + md.historySize) % md.historySize
	return md.history[idx], true
}

func (md *MilestoneDetector) checkLockProgress(stats WindowStats) []Milestone {
	if stats.Agents == 0 {
		return nil
	}

	levels := []struct {
		typ  MilestoneType
		frac float64
	}{
		{MilestoneLockQuarter, 0.25},
		{MilestoneLockHalf, 0.50},
		{MilestoneLockThreeQuarters, 0.75},
		{MilestoneAllLocked, 1.0},
	}

	frac := stats.LockedFraction()
	var out []Milestone
	for _, l := range levels {
		if md.lockFired[l.typ] || frac < l.frac {
			continue
		}
		md.lockFired[l.typ] = true
		out = append(out, Milestone{
			Type:        l.typ,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d of %d agents locked", stats.Locked, stats.Agents),
		})
	}
	return out
}

// checkStall fires once when no agent locked and the mean distance to target
// did not shrink for stallWindows consecutive windows.
func (md *MilestoneDetector) checkStall(stats WindowStats) *Milestone {
	prev, ok := md.previous()
	if !ok || stats.Locked == stats.Agents {
		return nil
	}

	if stats.Locks == 0 && stats.DistMean >= prev.DistMean*0.99 {
		md.stalledCount++
	} else {
		md.stalledCount = 0
		md.stallFired = false
	}

	if md.stalledCount == stallWindows && !md.stallFired {
		md.stallFired = true
		return &Milestone{
			Type:        MilestoneAssemblyStalled,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d agents unlocked with mean distance %.1f for %d windows", stats.Agents-stats.Locked, stats.DistMean, stallWindows),
		}
	}
	return nil
}

// checkFlockOrder fires when polarization crosses the threshold upwards and
// again when it falls well below it.
func (md *MilestoneDetector) checkFlockOrder(stats WindowStats) *Milestone {
	if !md.aligned && stats.Polarization >= md.polarizationThreshold {
		md.aligned = true
		return &Milestone{
			Type:        MilestoneFlockAligned,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Polarization %.2f reached threshold %.2f", stats.Polarization, md.polarizationThreshold),
		}
	}

	// hysteresis keeps a noisy flock from toggling every window
	if md.aligned && stats.Polarization < md.polarizationThreshold-0.2 {
		md.aligned = false
		return &Milestone{
			Type:        MilestoneFlockBroken,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Polarization dropped to %.2f", stats.Polarization),
		}
	}
	return nil
}
