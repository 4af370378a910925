// Package fitter adjusts the start momentum of a track candidate so that
// its propagated trajectory matches the assigned detector hits.
package fitter

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/particle"
	"github.com/san-kum/fragtrack/internal/propagator"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r3"
)

// Fit status codes. Candidates with a status below StatusThreshold are
// usable.
const (
	StatusConverged  = 0
	StatusIterations = 1
	StatusFailed     = 10
	StatusNonFinite  = 11

	StatusThreshold = 10
)

const (
	DefaultMaxEvaluations = 400
	DefaultSimplexSize    = 0.01
	TargetWeight          = 0.5

	failPenalty = 1e10
)

type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "forward", "":
		return Forward, nil
	case "backward":
		return Backward, nil
	}
	return Forward, fmt.Errorf("unknown fit direction %q", s)
}

type Options struct {
	Direction      Direction
	EnergyLoss     bool
	MaxEvaluations int
	SimplexSize    float64
}

func DefaultOptions() Options {
	return Options{
		Direction:      Forward,
		EnergyLoss:     true,
		MaxEvaluations: DefaultMaxEvaluations,
		SimplexSize:    DefaultSimplexSize,
	}
}

type Fitter struct {
	prop *propagator.Propagator
	opts Options
	log  zerolog.Logger
}

func New(prop *propagator.Propagator, opts Options, log zerolog.Logger) *Fitter {
	if opts.MaxEvaluations <= 0 {
		opts.MaxEvaluations = DefaultMaxEvaluations
	}
	if opts.SimplexSize <= 0 {
		opts.SimplexSize = DefaultSimplexSize
	}
	return &Fitter{prop: prop, opts: opts, log: log}
}

func (f *Fitter) Options() Options { return f.opts }

// Fit runs the configured fit of c over dets, which are ordered from the
// target to the time-of-flight wall. On return c holds the fitted start
// state, its chi-square and status, and has been reset to the start.
func (f *Fitter) Fit(c *particle.Particle, dets []*detector.Detector) error {
	if f.opts.Direction == Backward {
		return f.fitBackward(c, dets)
	}
	return f.fitForward(c, dets)
}

// slopes are the fit parameters: track slopes dx/dz, dy/dz and momentum
// relative to the seed.
type slopes struct {
	p0   float64
	sign float64 // direction of travel along z
}

func (s slopes) momentum(x []float64) (r3.Vec, bool) {
	p := s.p0 * x[2]
	if p <= 0 || math.IsNaN(p) {
		return r3.Vec{}, false
	}
	dir := r3.Unit(r3.Vec{X: x[0], Y: x[1], Z: s.sign})
	return r3.Scale(p, dir), true
}

func (s slopes) params(mom r3.Vec) []float64 {
	return []float64{mom.X / math.Abs(mom.Z), mom.Y / math.Abs(mom.Z), r3.Norm(mom) / s.p0}
}

func (f *Fitter) fitForward(c *particle.Particle, dets []*detector.Detector) error {
	c.Reset()
	s := slopes{p0: c.P, sign: 1}
	seed := seedForward(c, dets)

	start := c.StartPos
	objective := func(x []float64) float64 {
		mom, ok := s.momentum(x)
		if !ok {
			return failPenalty
		}
		c.SetStart(start, mom)
		chi2, err := f.ForwardChi2(c, dets)
		if err != nil {
			return failPenalty
		}
		return chi2
	}

	best, status := f.minimize(objective, s.params(seed))
	mom, _ := s.momentum(best)
	c.SetStart(start, mom)
	if _, err := f.ForwardChi2(c, dets); err != nil {
		c.Status = StatusFailed
		c.Reset()
		return err
	}
	return f.finish(c, status)
}

// ForwardChi2 resets c to its start and propagates it through dets,
// accumulating the chi-square of the assigned hits.
func (f *Fitter) ForwardChi2(c *particle.Particle, dets []*detector.Detector) (float64, error) {
	c.Reset()
	c.ClearChi2()
	for _, d := range dets {
		if d.Section != detector.Target {
			if err := f.prop.PropagateToPlane(c, d.Plane); err != nil {
				return 0, fmt.Errorf("%s: %w", d.Name, err)
			}
		}
		residual(c, d)
		if err := f.loseEnergy(c, d, 1); err != nil {
			return 0, fmt.Errorf("%s: %w", d.Name, err)
		}
	}
	return c.Chi2, nil
}

func (f *Fitter) fitBackward(c *particle.Particle, dets []*detector.Detector) error {
	tof := dets[len(dets)-1]
	i, ok := c.Hit(tof.Name).Index()
	if !ok {
		return fmt.Errorf("backward fit needs a %s hit", tof.Name)
	}
	c.Reset()
	origin := tof.Position(i)
	s := slopes{p0: c.P, sign: -1}
	seed := seedBackward(c, dets, origin)

	objective := func(x []float64) float64 {
		mom, ok := s.momentum(x)
		if !ok {
			return failPenalty
		}
		chi2, err := f.BackwardChi2(c, dets, origin, mom)
		if err != nil {
			return failPenalty
		}
		return chi2
	}

	best, status := f.minimize(objective, s.params(seed))
	mom, _ := s.momentum(best)
	if _, err := f.BackwardChi2(c, dets, origin, mom); err != nil {
		c.Status = StatusFailed
		return err
	}

	// the state at the target becomes the start of the downstream track
	c.SetStart(c.Pos, r3.Scale(-1, c.Momentum()))
	return f.finish(c, status)
}

// BackwardChi2 starts a reversed candidate at origin with momentum mom
// (pointing upstream) and propagates it back through dets to the target.
func (f *Fitter) BackwardChi2(c *particle.Particle, dets []*detector.Detector, origin, mom r3.Vec) (float64, error) {
	c.Pos = origin
	c.P = r3.Norm(mom)
	c.Dir = r3.Scale(1/c.P, mom)
	c.Beta = particle.BetaFromMomentum(c.Mass, c.P)
	c.Path = 0
	c.ClearChi2()

	residual(c, dets[len(dets)-1])
	for i := len(dets) - 2; i >= 0; i-- {
		d := dets[i]
		if err := f.prop.PropagateBackward(c, d.Plane); err != nil {
			return 0, fmt.Errorf("%s: %w", d.Name, err)
		}
		residual(c, d)
		if err := f.loseEnergy(c, d, -1); err != nil {
			return 0, fmt.Errorf("%s: %w", d.Name, err)
		}
	}
	return c.Chi2, nil
}

func (f *Fitter) minimize(objective func([]float64) float64, x0 []float64) ([]float64, int) {
	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{
		FuncEvaluations: f.opts.MaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-8,
			Relative:   1e-8,
			Iterations: 30,
		},
	}
	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{SimplexSize: f.opts.SimplexSize})
	if res == nil {
		f.log.Debug().Err(err).Msg("minimizer failed")
		return x0, StatusFailed
	}
	switch {
	case err != nil:
		f.log.Debug().Err(err).Str("status", res.Status.String()).Msg("minimizer stopped")
		return res.X, StatusIterations
	case res.Status == optimize.FunctionConvergence:
		return res.X, StatusConverged
	default:
		return res.X, StatusIterations
	}
}

func (f *Fitter) finish(c *particle.Particle, status int) error {
	c.Status = status
	if c.Chi2 >= failPenalty {
		c.Status = StatusFailed
	}
	if err := c.CheckFinite(); err != nil {
		c.Status = StatusNonFinite
		return err
	}
	c.Reset()
	return nil
}

func (f *Fitter) loseEnergy(c *particle.Particle, d *detector.Detector, sign float64) error {
	if !f.opts.EnergyLoss || d.Section == detector.TimeOfFlight {
		return nil
	}
	w := sign
	if d.Section == detector.Target {
		w *= TargetWeight
	}
	return c.PassThrough(d, w)
}

// residual adds the chi-square contribution of the hit assigned to d.
// Detectors without an assigned hit contribute nothing.
func residual(c *particle.Particle, d *detector.Detector) {
	i, ok := c.Hit(d.Name).Index()
	if !ok {
		return
	}
	local := d.GlobalToLocal(c.Pos)
	h := d.Hits[i]
	if d.MeasuresX() {
		dx := (local.X - h.X) / d.ResX
		c.AddChi2(dx * dx)
	}
	if d.MeasuresY() {
		dy := (local.Y - h.Y) / d.ResY
		c.AddChi2(dy * dy)
	}
}
