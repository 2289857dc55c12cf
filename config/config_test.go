package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.Flocking.Count != 100 || cfg.Flocking.PerceptionRadius != 50 || cfg.Flocking.MaxSpeed != 4 {
		t.Errorf("unexpected flocking defaults: %+v", cfg.Flocking)
	}
	if cfg.Assembly.Count != 50 || cfg.Assembly.MaxTicks != 3000 {
		t.Errorf("unexpected assembly defaults: count=%d max_ticks=%d", cfg.Assembly.Count, cfg.Assembly.MaxTicks)
	}
	if cfg.Assembly.Precision.Damping != 0.85 || cfg.Assembly.Seeking.Damping != 0.95 {
		t.Errorf("unexpected damping defaults: %+v / %+v", cfg.Assembly.Seeking, cfg.Assembly.Precision)
	}
	if cfg.Derived.MaxQueryRadius != cfg.Assembly.SeparationRadius {
		t.Errorf("MaxQueryRadius = %v, want %v", cfg.Derived.MaxQueryRadius, cfg.Assembly.SeparationRadius)
	}
	if cfg.Derived.CellSize != cfg.Derived.MaxQueryRadius {
		t.Errorf("CellSize = %v, want query radius when grid_cell_size is 0", cfg.Derived.CellSize)
	}
}

func TestLoadOverridesOnlyPresentKeys(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"yaml", "override.yaml", "run:\n  variant: flocking\nflocking:\n  count: 7\n"},
		{"toml", "override.toml", "[run]\nvariant = \"flocking\"\n\n[flocking]\ncount = 7\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load error: %v", err)
			}
			if cfg.Run.Variant != VariantFlocking {
				t.Errorf("variant = %q, want %q", cfg.Run.Variant, VariantFlocking)
			}
			if cfg.Flocking.Count != 7 {
				t.Errorf("count = %d, want 7", cfg.Flocking.Count)
			}
			// Untouched keys keep their defaults
			if cfg.Flocking.SeparationWeight != 1.5 {
				t.Errorf("separation_weight = %v, want default 1.5", cfg.Flocking.SeparationWeight)
			}
			if cfg.Derived.MaxQueryRadius != 50 {
				t.Errorf("MaxQueryRadius = %v, want perception radius 50", cfg.Derived.MaxQueryRadius)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown variant", func(c *Config) { c.Run.Variant = "swarm" }, "run.variant"},
		{"unknown discipline", func(c *Config) { c.Run.Discipline = "async" }, "run.discipline"},
		{"unknown index", func(c *Config) { c.Run.NeighborIndex = "kdtree" }, "run.neighbor_index"},
		{"lock above precision", func(c *Config) { c.Assembly.LockThreshold = 40 }, "lock_threshold"},
		{"zero damping", func(c *Config) { c.Assembly.Precision.Damping = 0 }, "damping"},
		{"inverted bounds", func(c *Config) { c.Assembly.Bounds.MinX = 500 }, "assembly.bounds"},
		{"bad layout", func(c *Config) { c.Assembly.Layout.Shape = "star" }, "layout.shape"},
		{"negative workers", func(c *Config) { c.Run.Workers = -1 }, "run.workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Assembly.Count = 12
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Assembly.Count != 12 {
		t.Errorf("count = %d, want 12", loaded.Assembly.Count)
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() { global = saved }()

	defer func() {
		if recover() == nil {
			t.Error("Cfg() should panic before Init()")
		}
	}()
	_ = Cfg()
}
