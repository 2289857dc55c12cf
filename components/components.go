// Package components defines ECS components for the simulation.
package components

// Position represents an agent's world position.
type Position struct {
	X float64 `inspect:"label,fmt:%.1f"`
	Y float64 `inspect:"label,fmt:%.1f"`
}

// Velocity represents an agent's velocity in units per tick.
type Velocity struct {
	X float64 `inspect:"label,fmt:%.2f"`
	Y float64 `inspect:"label,fmt:%.2f"`
}

// Agent holds identity. The ID is stable for the lifetime of a run and is only
// used to exclude an agent from its own neighbor scan.
type Agent struct {
	ID uint32 `inspect:"label"`
}

// Target is the formation slot a self-assembly agent converges on.
// Assigned at construction and never changed.
type Target struct {
	X float64 `inspect:"label,fmt:%.1f"`
	Y float64 `inspect:"label,fmt:%.1f"`
}

// Assembly holds the self-assembly state flags. Both flags only ever go from
// false to true.
type Assembly struct {
	Precision bool `inspect:"bool"`
	Locked    bool `inspect:"bool"`
}

// Phase returns the visual-state tag derived from the flags.
func (a Assembly) Phase() Phase {
	switch {
	case a.Locked:
		return PhaseLocked
	case a.Precision:
		return PhasePrecision
	default:
		return PhaseSeeking
	}
}

// Phase is the discrete visual-state tag reported to renderers.
type Phase uint8

const (
	PhaseFree      Phase = iota // Flocking agents: no state beyond kinematics
	PhaseSeeking                // Fast approach toward target
	PhasePrecision              // Slow, damped approach near target
	PhaseLocked                 // Resting exactly on target
)

// String returns the tag name.
func (p Phase) String() string {
	names := PhaseNames()
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// PhaseNames returns the names of all phases.
// The order matches the Phase constants.
func PhaseNames() []string {
	return []string{"free", "seeking", "precision", "locked"}
}
