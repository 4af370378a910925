package experiment

import (
	"github.com/san-kum/fragtrack/internal/config"
	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/events"
	"github.com/san-kum/fragtrack/internal/fitter"
	"github.com/san-kum/fragtrack/internal/tracker"
)

func Hypotheses(cfg *config.Config) []tracker.Hypothesis {
	out := make([]tracker.Hypothesis, len(cfg.Hypotheses))
	for i, h := range cfg.Hypotheses {
		out[i] = tracker.Hypothesis{Name: h.Name, Charge: h.Charge, Mass: h.Mass, Momentum: h.Momentum, Beta: h.Beta}
	}
	return out
}

// Species lists the hypotheses as generator species, in the same order.
func Species(cfg *config.Config) []events.Species {
	out := make([]events.Species, len(cfg.Hypotheses))
	for i, h := range cfg.Hypotheses {
		out[i] = events.Species{Name: h.Name, Charge: h.Charge, Mass: h.Mass, Momentum: h.Momentum}
	}
	return out
}

func Calibration(cfg *config.Config) (detector.Calibration, error) {
	mode, err := detector.ParseCalibrationMode(cfg.Calibration.Mode)
	if err != nil {
		return detector.Calibration{}, err
	}
	c := detector.DefaultCalibration()
	c.Mode = mode
	if cfg.Calibration.Scale != 0 {
		c.Scale = cfg.Calibration.Scale
	}
	if mode == detector.Experiment {
		c.Offset = 0
	} else if cfg.Calibration.Offset != 0 {
		c.Offset = cfg.Calibration.Offset
	}
	return c, nil
}

func FitterOptions(cfg *config.Config) (fitter.Options, error) {
	dir, err := fitter.ParseDirection(cfg.Search.Fit)
	if err != nil {
		return fitter.Options{}, err
	}
	o := fitter.DefaultOptions()
	o.Direction = dir
	o.EnergyLoss = cfg.Search.EnergyLoss
	if cfg.Search.MaxEvaluations > 0 {
		o.MaxEvaluations = cfg.Search.MaxEvaluations
	}
	return o, nil
}

func TrackerOptions(cfg *config.Config) (tracker.Options, error) {
	cal, err := Calibration(cfg)
	if err != nil {
		return tracker.Options{}, err
	}
	o := tracker.DefaultOptions()
	o.Hypotheses = Hypotheses(cfg)
	o.Calibration = cal
	if cfg.Search.Ceiling > 0 {
		o.Ceiling = cfg.Search.Ceiling
	}
	if cfg.Search.Chi2Cut > 0 {
		o.Chi2Cut = cfg.Search.Chi2Cut
	}
	if cfg.Search.StatusThreshold > 0 {
		o.StatusThreshold = cfg.Search.StatusThreshold
	}
	return o, nil
}
