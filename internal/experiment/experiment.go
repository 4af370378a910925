package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/san-kum/fragtrack/internal/config"
	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/events"
	"github.com/san-kum/fragtrack/internal/fitter"
	"github.com/san-kum/fragtrack/internal/metrics"
	"github.com/san-kum/fragtrack/internal/propagator"
	"github.com/san-kum/fragtrack/internal/tracker"
)

// Sink receives the result of every processed event.
type Sink interface {
	Record(res tracker.Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(res tracker.Result) error

func (f SinkFunc) Record(res tracker.Result) error { return f(res) }

// Experiment is a configured tracking chain: setup, propagator, fitter,
// tracker and diagnostics.
type Experiment struct {
	cfg         *config.Config
	log         zerolog.Logger
	setup       *detector.Setup
	prop        *propagator.Propagator
	fit         *fitter.Fitter
	tracker     *tracker.Tracker
	diag        *metrics.Diagnostics
	calibration detector.Calibration
}

func New(cfg *config.Config, log zerolog.Logger, observers ...tracker.Observer) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	setup, err := cfg.BuildSetup()
	if err != nil {
		return nil, err
	}
	field, err := cfg.BuildField()
	if err != nil {
		return nil, err
	}
	prop, err := propagator.New(field, cfg.Volume(), propagator.WithLogger(log))
	if err != nil {
		return nil, err
	}
	fopts, err := FitterOptions(cfg)
	if err != nil {
		return nil, err
	}
	topts, err := TrackerOptions(cfg)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:         cfg,
		log:         log,
		setup:       setup,
		prop:        prop,
		fit:         fitter.New(prop, fopts, log),
		diag:        metrics.NewDiagnostics(),
		calibration: topts.Calibration,
	}
	options := []tracker.Option{tracker.WithLogger(log), tracker.WithObserver(e.diag)}
	for _, o := range observers {
		options = append(options, tracker.WithObserver(o))
	}
	if e.tracker, err = tracker.New(setup, prop, e.fit, topts, options...); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Experiment) Config() *config.Config             { return e.cfg }
func (e *Experiment) Setup() *detector.Setup             { return e.setup }
func (e *Experiment) Propagator() *propagator.Propagator { return e.prop }
func (e *Experiment) Diagnostics() *metrics.Diagnostics  { return e.diag }
func (e *Experiment) Summary() tracker.Summary           { return e.tracker.Summary() }

// Generator returns a synthetic source emitting one fragment per
// hypothesis, with the simulation settings of the configuration.
func (e *Experiment) Generator(seed, limit int64) *events.Generator {
	g := events.NewGenerator(e.setup, e.prop, Species(e.cfg), seed)
	g.Calibration = e.calibration
	g.Spread = e.cfg.Simulation.Spread
	g.Noise = e.cfg.Simulation.Noise
	g.EnergyLoss = e.cfg.Search.EnergyLoss
	g.Limit = limit
	return g
}

// Run processes src until it is exhausted or ctx is done. Every result is
// passed to the sinks in order.
func (e *Experiment) Run(ctx context.Context, src events.Source, sinks ...Sink) (tracker.Summary, error) {
	for {
		if err := ctx.Err(); err != nil {
			return e.Summary(), err
		}
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return e.Summary(), fmt.Errorf("read event: %w", err)
		}
		res, err := e.tracker.ProcessEvent(ctx, ev)
		if err != nil {
			return e.Summary(), fmt.Errorf("event %d: %w", ev.Number, err)
		}
		e.diag.CountEvent(len(res.Tracks))
		for _, s := range sinks {
			if err := s.Record(*res); err != nil {
				return e.Summary(), fmt.Errorf("event %d: %w", ev.Number, err)
			}
		}
		e.log.Debug().Int64("event", ev.Number).Int("tracks", len(res.Tracks)).Msg("event processed")
	}

	s := e.tracker.Finish()
	e.log.Info().
		Int("events", s.Events).
		Int("tracks", s.Tracks).
		Int("complete", s.Complete).
		Int("overflows", s.Overflows).
		Float64("mean_chi2", s.MeanChi2).
		Msg("run finished")
	return s, nil
}
