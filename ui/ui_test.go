package ui

import "testing"

func TestPlace(t *testing.T) {
	tests := []struct {
		anchor PanelAnchor
		wantX  int32
		wantY  int32
	}{
		{AnchorTopLeft, 10, 10},
		{AnchorTopRight, 690, 10},
		{AnchorBottomLeft, 10, 490},
		{AnchorBottomRight, 690, 490},
	}

	for _, tc := range tests {
		x, y := Place(tc.anchor, 800, 600, 100, 100, 10)
		if x != tc.wantX || y != tc.wantY {
			t.Errorf("Place(%d) = (%d, %d), want (%d, %d)", tc.anchor, x, y, tc.wantX, tc.wantY)
		}
	}
}

func TestClampSteps(t *testing.T) {
	tests := []struct{ in, want int }{
		{-3, MinStepsPerUpdate},
		{0, MinStepsPerUpdate},
		{5, 5},
		{100, MaxStepsPerUpdate},
	}
	for _, tc := range tests {
		if got := clampSteps(tc.in); got != tc.want {
			t.Errorf("clampSteps(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestOverlayRegistryDefaults(t *testing.T) {
	reg := NewOverlayRegistry()

	if !reg.IsEnabled(OverlayTargets) || !reg.IsEnabled(OverlayLegend) {
		t.Error("expected targets and legend enabled by default")
	}
	if reg.IsEnabled(OverlaySpatialGrid) {
		t.Error("expected spatial grid disabled by default")
	}

	cats := reg.Categories()
	want := []string{"visual", "perception", "debug"}
	if len(cats) != len(want) {
		t.Fatalf("expected categories %v, got %v", want, cats)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Errorf("category %d = %q, want %q", i, cats[i], want[i])
		}
	}
}

func TestOverlayToggleExclusive(t *testing.T) {
	reg := NewOverlayRegistry()
	reg.Register(OverlayDescriptor{ID: "a", Category: "test", Exclusive: []OverlayID{"b"}})
	reg.Register(OverlayDescriptor{ID: "b", Category: "test"})

	reg.SetEnabled("b", true)
	if !reg.Toggle("a") {
		t.Fatal("expected a enabled after toggle")
	}
	if reg.IsEnabled("b") {
		t.Error("expected b disabled by exclusive overlay a")
	}
	if reg.Toggle("a") {
		t.Error("expected a disabled after second toggle")
	}
	if reg.Toggle("missing") {
		t.Error("toggling an unknown overlay should report false")
	}
}

func TestOverlayKeyPress(t *testing.T) {
	reg := NewOverlayRegistry()
	desc, _ := reg.Get(OverlayVelocity)

	id, state, ok := reg.HandleKeyPress(desc.Key)
	if !ok || id != OverlayVelocity || !state {
		t.Errorf("HandleKeyPress = (%q, %v, %v), want (%q, true, true)", id, state, ok, OverlayVelocity)
	}
	if _, _, ok := reg.HandleKeyPress(0); ok {
		t.Error("key 0 should not toggle anything")
	}
	got := reg.EnabledOverlays()
	if len(got) != 3 {
		t.Errorf("expected 3 enabled overlays, got %v", got)
	}
}
