package detector

import (
	"fmt"
	"math"
)

// CalibrationMode selects how the time-of-flight energy-loss observable is
// turned into a charge.
type CalibrationMode int

const (
	// Simulated hits carry the deposited energy: Z = int(sqrt(eloss)*Scale + Offset).
	Simulation CalibrationMode = iota
	// Calibrated experimental hits already carry the charge: Z = int(eloss*Scale).
	Experiment
)

func ParseCalibrationMode(s string) (CalibrationMode, error) {
	switch s {
	case "simulation", "":
		return Simulation, nil
	case "experiment":
		return Experiment, nil
	}
	return Simulation, fmt.Errorf("unknown calibration mode %q", s)
}

func (m CalibrationMode) String() string {
	if m == Experiment {
		return "experiment"
	}
	return "simulation"
}

type Calibration struct {
	Mode   CalibrationMode
	Scale  float64
	Offset float64
}

func DefaultCalibration() Calibration {
	return Calibration{Mode: Simulation, Scale: 22.678, Offset: 0.5}
}

func (c Calibration) Charge(eloss float64) int {
	if c.Mode == Experiment {
		s := c.Scale
		if s == 0 {
			s = 1
		}
		return int(eloss * s)
	}
	if eloss <= 0 {
		return 0
	}
	return int(math.Sqrt(eloss)*c.Scale + c.Offset)
}

// Eloss is the inverse of Charge, used to write synthetic hits. The result
// sits in the middle of the charge bin.
func (c Calibration) Eloss(z int) float64 {
	if c.Mode == Experiment {
		s := c.Scale
		if s == 0 {
			s = 1
		}
		return (float64(z) + 0.5) / s
	}
	r := float64(z) / c.Scale
	return r * r
}
