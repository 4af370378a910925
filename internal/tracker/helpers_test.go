package tracker

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/san-kum/fragtrack/internal/config"
	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/events"
	"github.com/san-kum/fragtrack/internal/fitter"
	"github.com/san-kum/fragtrack/internal/particle"
	"github.com/san-kum/fragtrack/internal/propagator"
)

var (
	carbon12 = Hypothesis{Name: "12C", Charge: 6, Mass: 11.1749, Momentum: 9.666, Beta: 0.65}
	carbon11 = Hypothesis{Name: "11C", Charge: 6, Mass: 10.2542, Momentum: 8.860, Beta: 0.65}
	helium4  = Hypothesis{Name: "4He", Charge: 2, Mass: 3.7284, Momentum: 3.222, Beta: 0.65}
)

func species(h Hypothesis) events.Species {
	return events.Species{Name: h.Name, Charge: h.Charge, Mass: h.Mass, Momentum: h.Momentum}
}

type fixture struct {
	setup   *detector.Setup
	prop    *propagator.Propagator
	fit     *fitter.Fitter
	tracker *Tracker
	gen     *events.Generator
}

// newFixture builds a tracker for cfg searching for hyps, and a generator
// emitting one fragment per entry of emit.
func newFixture(cfg *config.Config, hyps []Hypothesis, emit []Hypothesis, options ...Option) (*fixture, error) {
	setup, err := cfg.BuildSetup()
	if err != nil {
		return nil, err
	}
	field, err := cfg.BuildField()
	if err != nil {
		return nil, err
	}
	prop, err := propagator.New(field, cfg.Volume())
	if err != nil {
		return nil, err
	}
	dir, err := fitter.ParseDirection(cfg.Search.Fit)
	if err != nil {
		return nil, err
	}
	fopts := fitter.DefaultOptions()
	fopts.Direction = dir
	fopts.EnergyLoss = cfg.Search.EnergyLoss
	fopts.MaxEvaluations = cfg.Search.MaxEvaluations
	fit := fitter.New(prop, fopts, zerolog.Nop())

	opts := DefaultOptions()
	opts.Hypotheses = hyps
	tr, err := New(setup, prop, fit, opts, options...)
	if err != nil {
		return nil, err
	}

	var sp []events.Species
	for _, h := range emit {
		sp = append(sp, species(h))
	}
	gen := events.NewGenerator(setup, prop, sp, 7)
	gen.Smear = false
	gen.EnergyLoss = cfg.Search.EnergyLoss
	return &fixture{setup: setup, prop: prop, fit: fit, tracker: tr, gen: gen}, nil
}

// nanFitter runs the real fit and then poisons the start momentum.
type nanFitter struct {
	*fitter.Fitter
}

func (f nanFitter) Fit(c *particle.Particle, dets []*detector.Detector) error {
	if err := f.Fitter.Fit(c, dets); err != nil {
		return err
	}
	c.StartMom.X = math.NaN()
	return nil
}
