package components

import "testing"

func TestAssemblyPhase(t *testing.T) {
	tests := []struct {
		name string
		a    Assembly
		want Phase
	}{
		{"fresh", Assembly{}, PhaseSeeking},
		{"precision", Assembly{Precision: true}, PhasePrecision},
		{"locked", Assembly{Precision: true, Locked: true}, PhaseLocked},
		{"locked without precision", Assembly{Locked: true}, PhaseLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Phase(); got != tt.want {
				t.Errorf("Phase() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseLocked.String() != "locked" {
		t.Errorf("PhaseLocked.String() = %q", PhaseLocked.String())
	}
	if Phase(42).String() != "unknown" {
		t.Errorf("out of range phase should be unknown, got %q", Phase(42).String())
	}
}
