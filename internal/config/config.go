package config

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCeiling         = 10000
	DefaultChi2Cut         = 1e5
	DefaultStatusThreshold = 10
	DefaultBeta            = 0.65
	DefaultChargeScale     = 22.678
	DefaultChargeOffset    = 0.5
	DefaultMaxEvaluations  = 400
	DefaultEvents          = 1000
	DefaultSpread          = 0.02
)

var ErrMissingConfiguration = errors.New("config: missing configuration")

// Vec3 is an (x, y, z) triple in cm or kG.
type Vec3 [3]float64

func (v Vec3) R3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

type Config struct {
	Name        string             `yaml:"name"`
	Field       FieldConfig        `yaml:"field"`
	Detectors   []DetectorConfig   `yaml:"detectors"`
	Sides       SidesConfig        `yaml:"sides"`
	Hypotheses  []HypothesisConfig `yaml:"hypotheses"`
	Search      SearchConfig       `yaml:"search"`
	Calibration CalibrationConfig  `yaml:"calibration"`
	Simulation  SimulationConfig   `yaml:"simulation"`
}

type FieldConfig struct {
	Type     string  `yaml:"type"`
	B        Vec3    `yaml:"b"`
	Map      string  `yaml:"map,omitempty"`
	Scale    float64 `yaml:"scale"`
	Position Vec3    `yaml:"position"`
	YAngle   float64 `yaml:"y_angle"`
	XMax     float64 `yaml:"x_max"`
	YMax     float64 `yaml:"y_max"`
	ZMin     float64 `yaml:"z_min"`
	ZMax     float64 `yaml:"z_max"`
}

type DetectorConfig struct {
	Name           string  `yaml:"name"`
	Section        string  `yaml:"section"`
	Center         Vec3    `yaml:"center"`
	YAngle         float64 `yaml:"y_angle"`
	ResX           float64 `yaml:"res_x"`
	ResY           float64 `yaml:"res_y"`
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	Thickness      float64 `yaml:"thickness"`
	Density        float64 `yaml:"density,omitempty"`
	ZOverA         float64 `yaml:"z_over_a,omitempty"`
	MeanExcitation float64 `yaml:"mean_excitation,omitempty"`
}

type SidesConfig struct {
	Left  []string `yaml:"left"`
	Right []string `yaml:"right"`
}

type HypothesisConfig struct {
	Name     string  `yaml:"name"`
	Charge   int     `yaml:"charge"`
	Mass     float64 `yaml:"mass"`
	Momentum float64 `yaml:"momentum"`
	Beta     float64 `yaml:"beta"`
}

type SearchConfig struct {
	Ceiling         int     `yaml:"ceiling"`
	Chi2Cut         float64 `yaml:"chi2_cut"`
	StatusThreshold int     `yaml:"status_threshold"`
	Fit             string  `yaml:"fit"`
	EnergyLoss      bool    `yaml:"energy_loss"`
	MaxEvaluations  int     `yaml:"max_evaluations"`
}

type CalibrationConfig struct {
	Mode   string  `yaml:"mode"`
	Scale  float64 `yaml:"scale"`
	Offset float64 `yaml:"offset"`
}

// SimulationConfig drives the synthetic event generator.
type SimulationConfig struct {
	Seed   int64   `yaml:"seed"`
	Events int     `yaml:"events"`
	Spread float64 `yaml:"spread"` // rad, gaussian sigma of the emission angle
	Noise  float64 `yaml:"noise"`  // mean number of noise hits per detector
}

// DefaultConfig returns the two-arm fragment setup with carbon and helium
// hypotheses.
func DefaultConfig() *Config {
	return &Config{
		Name: "s494",
		Field: FieldConfig{
			Type:     "uniform",
			B:        Vec3{0, -2, 0},
			Scale:    1,
			Position: Vec3{0, 0, 300},
			XMax:     150,
			YMax:     40,
			ZMin:     -100,
			ZMax:     100,
		},
		Detectors: []DetectorConfig{
			{Name: "target", Section: "target", Thickness: 0.5, Density: 2.26, ZOverA: 0.49954, MeanExcitation: 78},
			{Name: "fi23a", Section: "between_magnet_regions", Center: Vec3{0, 0, 50}, ResX: 0.02, Width: 10, Height: 10, Thickness: 0.02},
			{Name: "fi23b", Section: "between_magnet_regions", Center: Vec3{0, 0, 52}, ResY: 0.02, Width: 10, Height: 10, Thickness: 0.02},
			{Name: "fi30", Section: "after_magnet_region", Center: Vec3{30, 0, 600}, ResX: 0.03, Width: 80, Height: 60, Thickness: 0.1},
			{Name: "fi31", Section: "after_magnet_region", Center: Vec3{-30, 0, 600}, ResX: 0.03, Width: 80, Height: 60, Thickness: 0.1},
			{Name: "fi32", Section: "after_magnet_region", Center: Vec3{35, 0, 650}, ResX: 0.03, Width: 80, Height: 60, Thickness: 0.1},
			{Name: "fi33", Section: "after_magnet_region", Center: Vec3{-35, 0, 650}, ResX: 0.03, Width: 80, Height: 60, Thickness: 0.1},
			{Name: "tofd", Section: "tof", Center: Vec3{0, 0, 900}, ResX: 0.8, ResY: 2.0, Width: 240, Height: 120, Thickness: 0.5},
		},
		Sides: SidesConfig{
			Left:  []string{"target", "fi23a", "fi23b", "fi30", "fi32", "tofd"},
			Right: []string{"target", "fi23a", "fi23b", "fi31", "fi33", "tofd"},
		},
		Hypotheses: []HypothesisConfig{
			{Name: "12C", Charge: 6, Mass: 11.1749, Momentum: 9.666, Beta: DefaultBeta},
			{Name: "4He", Charge: 2, Mass: 3.7284, Momentum: 3.222, Beta: DefaultBeta},
		},
		Search: SearchConfig{
			Ceiling:         DefaultCeiling,
			Chi2Cut:         DefaultChi2Cut,
			StatusThreshold: DefaultStatusThreshold,
			Fit:             "forward",
			EnergyLoss:      true,
			MaxEvaluations:  DefaultMaxEvaluations,
		},
		Calibration: CalibrationConfig{
			Mode:   "simulation",
			Scale:  DefaultChargeScale,
			Offset: DefaultChargeOffset,
		},
		Simulation: SimulationConfig{
			Seed:   1,
			Events: DefaultEvents,
			Spread: DefaultSpread,
		},
	}
}

// Load reads a setup file. Search, calibration, simulation and hypothesis
// settings fall back to DefaultConfig; the field and the detector geometry
// must come from the file, so Validate reports them as missing otherwise.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Field = FieldConfig{}
	cfg.Detectors = nil
	cfg.Sides = SidesConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy through a YAML round trip.
func (c *Config) Clone() *Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(err)
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}
