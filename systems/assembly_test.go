package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/windstorm12/emergent-systems-lab/components"
)

func defaultAssemblyParams() AssemblyParams {
	return AssemblyParams{
		LockThreshold:      2,
		PrecisionThreshold: 30,
		SeparationRadius:   25,
		Seeking:            ModeParams{TargetForce: 1.0, SeparationScale: 1, Damping: 0.95, MaxSpeed: 8},
		Precision:          ModeParams{TargetForce: 0.8, SeparationScale: 2, Damping: 0.85, MaxSpeed: 3},
	}
}

func TestAdvancePhase(t *testing.T) {
	tests := []struct {
		name      string
		body      Body
		want      Transition
		wantPhase components.Phase
	}{
		{
			name:      "far stays seeking",
			body:      Body{Pos: r2.Vec{X: 100}, Vel: r2.Vec{X: -1}},
			want:      TransitionNone,
			wantPhase: components.PhaseSeeking,
		},
		{
			name:      "inside precision radius",
			body:      Body{Pos: r2.Vec{X: 29.9}, Vel: r2.Vec{X: -1}},
			want:      TransitionPrecision,
			wantPhase: components.PhasePrecision,
		},
		{
			name:      "precision radius is strict",
			body:      Body{Pos: r2.Vec{X: 30}},
			want:      TransitionNone,
			wantPhase: components.PhaseSeeking,
		},
		{
			name:      "locks from seeking",
			body:      Body{Pos: r2.Vec{X: 1.5}, Vel: r2.Vec{X: -2}},
			want:      TransitionLocked,
			wantPhase: components.PhaseLocked,
		},
		{
			name:      "locks from precision",
			body:      Body{Pos: r2.Vec{X: 0, Y: -1.9}, Precision: true},
			want:      TransitionLocked,
			wantPhase: components.PhaseLocked,
		},
		{
			name:      "already precision is no transition",
			body:      Body{Pos: r2.Vec{X: 10}, Precision: true},
			want:      TransitionNone,
			wantPhase: components.PhasePrecision,
		},
		{
			name:      "locked never changes",
			body:      Body{Pos: r2.Vec{X: 50}, Precision: true, Locked: true},
			want:      TransitionNone,
			wantPhase: components.PhaseLocked,
		},
	}

	p := defaultAssemblyParams()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.body
			got := AdvancePhase(&b, &p)
			if got != tc.want {
				t.Errorf("transition = %v, want %v", got, tc.want)
			}
			if b.Phase() != tc.wantPhase {
				t.Errorf("phase = %v, want %v", b.Phase(), tc.wantPhase)
			}
			if got == TransitionLocked {
				if b.Pos != b.Target || b.Vel != (r2.Vec{}) {
					t.Errorf("locked body not snapped: pos %v vel %v", b.Pos, b.Vel)
				}
			}
		})
	}
}

func TestTargetForce(t *testing.T) {
	p := defaultAssemblyParams()

	b := Body{Pos: r2.Vec{X: 30, Y: 40}}
	f := TargetForce(&b, &p.Seeking)
	if !approxVec(f, r2.Vec{X: -0.6, Y: -0.8}, 1e-12) {
		t.Errorf("seeking force = %v", f)
	}

	f = TargetForce(&b, &p.Precision)
	if math.Abs(r2.Norm(f)-0.8) > 1e-12 {
		t.Errorf("precision force magnitude = %f, want 0.8", r2.Norm(f))
	}

	onTarget := Body{Pos: r2.Vec{X: 5, Y: 5}, Target: r2.Vec{X: 5, Y: 5}}
	if f := TargetForce(&onTarget, &p.Seeking); f != (r2.Vec{}) {
		t.Errorf("force on target = %v, want zero", f)
	}
}

func TestAvoidanceForce(t *testing.T) {
	pool := []Body{
		{Pos: r2.Vec{X: 0, Y: 0}},
		{Pos: r2.Vec{X: 5, Y: 0}},            // d=5 -> (-5,0)*20/5 = (-20,0)
		{Pos: r2.Vec{X: 0, Y: 10}, Locked: true}, // ignored
		{Pos: r2.Vec{X: 0, Y: -20}},          // d=20 -> (0,20)*5/20 = (0,5)
		{Pos: r2.Vec{X: 40, Y: 0}},           // beyond radius
	}
	neighbors := QueryNeighborsInto(nil, pool, 0, 50)
	got := AvoidanceForce(pool, neighbors, 25)
	want := r2.Vec{X: -20, Y: 5}
	if !approxVec(got, want, 1e-9) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAssemblyForceScalesAvoidanceByMode(t *testing.T) {
	p := defaultAssemblyParams()
	pool := []Body{
		{Pos: r2.Vec{X: 100, Y: 0}},
		{Pos: r2.Vec{X: 100, Y: 5}},
	}
	neighbors := QueryNeighborsInto(nil, pool, 0, p.SeparationRadius)

	// target at origin: unit (-1,0); avoidance (0,-5)*20/5 = (0,-20)
	seeking := AssemblyForce(&pool[0], pool, neighbors, &p)
	if !approxVec(seeking, r2.Vec{X: -1, Y: -20}, 1e-9) {
		t.Errorf("seeking = %v", seeking)
	}

	pool[0].Precision = true
	precision := AssemblyForce(&pool[0], pool, neighbors, &p)
	if !approxVec(precision, r2.Vec{X: -0.8, Y: -40}, 1e-9) {
		t.Errorf("precision = %v", precision)
	}
}

func TestSpeedCap(t *testing.T) {
	m := ModeParams{MaxSpeed: 3}
	if got := m.SpeedCap(0.5); got != 3 {
		t.Errorf("without gain cap = %f, want 3", got)
	}
	m.ApproachGain = 0.5
	if got := m.SpeedCap(4); got != 2 {
		t.Errorf("gain cap at 4 = %f, want 2", got)
	}
	if got := m.SpeedCap(100); got != 3 {
		t.Errorf("gain cap far away = %f, want 3", got)
	}
}

func TestSingleAgentConverges(t *testing.T) {
	p := defaultAssemblyParams()
	b := Body{Pos: r2.Vec{X: 100, Y: 0}}
	pool := []Body{b}
	bounds := Clamp{Min: r2.Vec{X: -400, Y: -300}, Max: r2.Vec{X: 400, Y: 300}}

	for tick := 0; tick < 200; tick++ {
		self := &pool[0]
		if AdvancePhase(self, &p) == TransitionLocked || self.Locked {
			break
		}
		m := p.Mode(self.Precision)
		force := AssemblyForce(self, pool, nil, &p)
		self.Pos, self.Vel = Integrate(self.Pos, self.Vel, force, Motion{
			MaxSpeed: m.SpeedCap(self.DistToTarget()),
			Damping:  m.Damping,
			Boundary: bounds,
		})
	}

	if !pool[0].Locked {
		t.Fatalf("agent did not lock, final pos %v", pool[0].Pos)
	}
	if pool[0].Pos != (r2.Vec{}) {
		t.Errorf("locked pos = %v, want target", pool[0].Pos)
	}
}

func TestYieldContested(t *testing.T) {
	pool := []Body{
		{Pos: r2.Vec{X: 10}, Target: r2.Vec{}},
		{Pos: r2.Vec{X: 0}, Target: r2.Vec{X: 20}},           // contested, higher index
		{Pos: r2.Vec{X: 20}, Target: r2.Vec{X: 200}},         // target far apart
		{Pos: r2.Vec{X: 10, Y: 10}, Target: r2.Vec{}},        // shared target, higher index
		{Pos: r2.Vec{X: 10, Y: -10}, Target: r2.Vec{X: 100}}, // target far apart
	}

	t.Run("lowest index ignores contested", func(t *testing.T) {
		ns := QueryNeighborsInto(nil, pool, 0, 25)
		got := neighborIndices(YieldContested(pool, 0, ns, 25))
		want := []int{2, 4}
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("kept %v, want %v", got, want)
		}
	})

	t.Run("higher index keeps lower", func(t *testing.T) {
		ns := QueryNeighborsInto(nil, pool, 3, 25)
		got := neighborIndices(YieldContested(pool, 3, ns, 25))
		want := []int{0, 1, 2, 4}
		if len(got) != len(want) {
			t.Fatalf("kept %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("kept %v, want %v", got, want)
				break
			}
		}
	})
}
