package config

import (
	"fmt"

	"github.com/agnivade/levenshtein"
	"github.com/san-kum/fragtrack/internal/detector"
)

var (
	fieldTypes       = []string{"uniform", "map"}
	fitDirections    = []string{"forward", "backward"}
	calibrationModes = []string{"simulation", "experiment"}
)

// Validate checks that every item needed to build a tracker is present.
// Missing items wrap ErrMissingConfiguration.
func (c *Config) Validate() error {
	if len(c.Detectors) == 0 {
		return fmt.Errorf("%w: detectors", ErrMissingConfiguration)
	}
	if len(c.Sides.Left) == 0 || len(c.Sides.Right) == 0 {
		return fmt.Errorf("%w: sides.left and sides.right", ErrMissingConfiguration)
	}
	if len(c.Hypotheses) == 0 {
		return fmt.Errorf("%w: hypotheses", ErrMissingConfiguration)
	}
	if err := oneOf("field.type", c.Field.Type, fieldTypes); err != nil {
		return err
	}
	if c.Field.Type == "map" && c.Field.Map == "" {
		return fmt.Errorf("%w: field.map", ErrMissingConfiguration)
	}
	if c.Field.ZMax <= c.Field.ZMin {
		return fmt.Errorf("field: z_max (%g) must be above z_min (%g)", c.Field.ZMax, c.Field.ZMin)
	}
	if err := oneOf("search.fit", c.Search.Fit, fitDirections); err != nil {
		return err
	}
	if err := oneOf("calibration.mode", c.Calibration.Mode, calibrationModes); err != nil {
		return err
	}

	names := make([]string, 0, len(c.Detectors))
	seen := make(map[string]bool)
	for _, d := range c.Detectors {
		if d.Name == "" {
			return fmt.Errorf("%w: detector name", ErrMissingConfiguration)
		}
		if seen[d.Name] {
			return fmt.Errorf("detector %q defined twice", d.Name)
		}
		seen[d.Name] = true
		names = append(names, d.Name)
		if err := oneOf("detector "+d.Name+" section", d.Section, detector.SectionNames()); err != nil {
			return err
		}
	}
	for side, list := range map[string][]string{"left": c.Sides.Left, "right": c.Sides.Right} {
		for _, n := range list {
			if !seen[n] {
				return fmt.Errorf("sides.%s: unknown detector %q%s", side, n, suggest(n, names))
			}
		}
	}

	for i, h := range c.Hypotheses {
		if h.Charge <= 0 || h.Mass <= 0 || h.Momentum <= 0 {
			return fmt.Errorf("hypothesis %d (%s): charge, mass and momentum must be positive", i, h.Name)
		}
		if h.Beta <= 0 || h.Beta >= 1 {
			return fmt.Errorf("hypothesis %d (%s): beta %g out of (0, 1)", i, h.Name, h.Beta)
		}
	}
	if c.Search.Ceiling <= 0 {
		return fmt.Errorf("search.ceiling must be positive")
	}
	return nil
}

func oneOf(key, value string, allowed []string) error {
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	if value == "" {
		return fmt.Errorf("%w: %s", ErrMissingConfiguration, key)
	}
	return fmt.Errorf("%s: unknown value %q%s", key, value, suggest(value, allowed))
}

// suggest returns a "did you mean" hint for the closest candidate within
// two edits.
func suggest(name string, candidates []string) string {
	best, dist := "", 3
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < dist {
			best, dist = c, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
