package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/physics"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Search.Ceiling != 10000 {
		t.Errorf("expected ceiling 10000, got %d", cfg.Search.Ceiling)
	}
	if cfg.Hypotheses[0].Charge < cfg.Hypotheses[1].Charge {
		t.Error("hypotheses should be ordered heavier first")
	}
}

func TestBuildSetup(t *testing.T) {
	setup, err := DefaultConfig().BuildSetup()
	if err != nil {
		t.Fatal(err)
	}
	if got := len(setup.Tracking(detector.Left)); got != 4 {
		t.Errorf("expected 4 tracking detectors on the left, got %d", got)
	}
	if setup.TOF(detector.Left) != setup.TOF(detector.Right) {
		t.Error("tof wall should be shared by both sides")
	}
	d, err := setup.Get("fi30")
	if err != nil {
		t.Fatal(err)
	}
	if d.Plane.Origin.X != 30 || d.Section != detector.AfterMagnetRegion {
		t.Errorf("fi30 misplaced: %+v", d.Plane.Origin)
	}
}

func TestBuildField(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Field.Scale = 0.5
	f, err := cfg.BuildField()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f.(physics.Scaled); !ok {
		t.Fatalf("expected scaled field, got %T", f)
	}
	if got := f.At(cfg.Field.Position.R3()).Y; got != -1 {
		t.Errorf("scaled By = %v, want -1", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		missing bool
		hint    string
	}{
		{"no detectors", func(c *Config) { c.Detectors = nil }, true, ""},
		{"no hypotheses", func(c *Config) { c.Hypotheses = nil }, true, ""},
		{"no field type", func(c *Config) { c.Field.Type = "" }, true, ""},
		{"map without file", func(c *Config) { c.Field.Type = "map" }, true, ""},
		{"field typo", func(c *Config) { c.Field.Type = "unifrom" }, false, `"uniform"`},
		{"side typo", func(c *Config) { c.Sides.Left[3] = "fi3O" }, false, `"fi30"`},
		{"section typo", func(c *Config) { c.Detectors[0].Section = "targt" }, false, `"target"`},
		{"bad beta", func(c *Config) { c.Hypotheses[0].Beta = 1.2 }, false, ""},
		{"empty volume", func(c *Config) { c.Field.ZMax = c.Field.ZMin }, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrMissingConfiguration); got != tt.missing {
				t.Errorf("errors.Is(ErrMissingConfiguration) = %v for %v", got, err)
			}
			if tt.hint != "" && !strings.Contains(err.Error(), tt.hint) {
				t.Errorf("error %q should suggest %s", err, tt.hint)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setup.yaml")
	cfg := DefaultConfig()
	cfg.Search.Fit = "backward"
	cfg.Hypotheses = cfg.Hypotheses[:1]
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Search.Fit != "backward" || len(got.Hypotheses) != 1 {
		t.Errorf("round trip lost data: fit=%s hypotheses=%d", got.Search.Fit, len(got.Hypotheses))
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := Save(path, DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// keep the geometry blocks, drop everything after them
	full := string(data)
	cut := strings.Index(full, "hypotheses:")
	if cut < 0 {
		t.Fatal("saved config has no hypotheses block")
	}
	partial := full[:cut] + "search:\n  ceiling: 50\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.Ceiling != 50 {
		t.Errorf("ceiling = %d, want 50", cfg.Search.Ceiling)
	}
	if len(cfg.Hypotheses) == 0 || cfg.Calibration.Scale != DefaultChargeScale {
		t.Error("defaults should survive a partial file")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("partial file with geometry should validate: %v", err)
	}
}

func TestLoadRequiresGeometry(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
	}{
		{"name only", "name: custom\n", "detectors"},
		{"no field", "", "field.type"},
		{"no sides", "", "sides"},
	}

	full, err := yamlBlocks(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	tests[1].body = "name: custom\n" + full["detectors"] + full["sides"]
	tests[2].body = "name: custom\n" + full["field"] + full["detectors"]

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "setup.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			err = cfg.Validate()
			if !errors.Is(err, ErrMissingConfiguration) {
				t.Fatalf("expected missing configuration, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q should name %s", err, tt.key)
			}
		})
	}
}

// yamlBlocks marshals the top-level sections of cfg one by one.
func yamlBlocks(cfg *Config) (map[string]string, error) {
	out := make(map[string]string)
	for key, v := range map[string]any{
		"field":     map[string]FieldConfig{"field": cfg.Field},
		"detectors": map[string][]DetectorConfig{"detectors": cfg.Detectors},
		"sides":     map[string]SidesConfig{"sides": cfg.Sides},
	} {
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[key] = string(data)
	}
	return out, nil
}

func TestPresets(t *testing.T) {
	for _, name := range ListPresets() {
		cfg, err := GetPreset(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
	cfg, _ := GetPreset("s494-oxygen")
	if cfg.Hypotheses[0].Charge != 8 {
		t.Error("oxygen preset should try oxygen first")
	}
	if _, err := GetPreset("s49"); err == nil || !strings.Contains(err.Error(), `"s494"`) {
		t.Errorf("expected suggestion, got %v", err)
	}
}

func TestClone(t *testing.T) {
	a := DefaultConfig()
	b := a.Clone()
	b.Detectors[0].Name = "changed"
	if a.Detectors[0].Name == "changed" {
		t.Error("clone shares detector slice")
	}
}
