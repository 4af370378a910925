package config

import (
	"fmt"
	"sort"
)

var Presets = map[string]func() *Config{
	"s494": DefaultConfig,
	"s494-oxygen": func() *Config {
		c := DefaultConfig()
		c.Name = "s494-oxygen"
		c.Hypotheses = append([]HypothesisConfig{
			{Name: "16O", Charge: 8, Mass: 15.0124, Momentum: 12.888, Beta: DefaultBeta},
		}, c.Hypotheses...)
		return c
	},
	"s494-experiment": func() *Config {
		c := DefaultConfig()
		c.Name = "s494-experiment"
		c.Calibration = CalibrationConfig{Mode: "experiment", Scale: 1}
		c.Field.Scale = 0.9
		return c
	},
	"s494-backward": func() *Config {
		c := DefaultConfig()
		c.Name = "s494-backward"
		c.Search.Fit = "backward"
		return c
	},
	"bench": func() *Config {
		c := DefaultConfig()
		c.Name = "bench"
		c.Search.EnergyLoss = false
		c.Search.MaxEvaluations = 150
		return c
	},
}

func GetPreset(name string) (*Config, error) {
	build, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q%s", name, suggest(name, ListPresets()))
	}
	return build(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for n := range Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
