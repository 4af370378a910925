package propagator

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/san-kum/fragtrack/internal/geometry"
	"github.com/san-kum/fragtrack/internal/integrators"
	"github.com/san-kum/fragtrack/internal/particle"
	"github.com/san-kum/fragtrack/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	InitialStep = 0.01 // cm
	Step        = 1.0  // cm
	Convergence = 1e-3
	MaxSteps    = 1000

	refineSteps     = 3
	refineTolerance = 1e-9
)

// Recorder receives every point a propagated track passes through.
type Recorder interface {
	Record(pos r3.Vec)
}

type Propagator struct {
	bounds   Bounds
	reversed Bounds
	rk       *integrators.RK4
	log      zerolog.Logger
	rec      Recorder

	steps int
}

type Option func(*Propagator)

func WithLogger(l zerolog.Logger) Option {
	return func(p *Propagator) { p.log = l }
}

func WithRecorder(r Recorder) Option {
	return func(p *Propagator) { p.rec = r }
}

func New(f physics.Field, vol physics.Volume, opts ...Option) (*Propagator, error) {
	b, err := BoundsOf(vol)
	if err != nil {
		return nil, fmt.Errorf("field volume: %w", err)
	}
	p := &Propagator{
		bounds:   b,
		reversed: b.Reversed(),
		rk:       integrators.NewRK4(f),
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

func (p *Propagator) Bounds() Bounds { return p.bounds }

// SetRecorder replaces the recorder; nil disables recording.
func (p *Propagator) SetRecorder(r Recorder) { p.rec = r }

// Steps returns the number of RK steps taken so far.
func (p *Propagator) Steps() int { return p.steps }

// PropagateToPlane moves c along its momentum onto target.
func (p *Propagator) PropagateToPlane(c *particle.Particle, target geometry.Plane) error {
	return p.propagate(c, target, p.bounds, 1)
}

// PropagateBackward moves a reversed candidate (momentum pointing upstream)
// onto target.
func (p *Propagator) PropagateBackward(c *particle.Particle, target geometry.Plane) error {
	return p.propagate(c, target, p.reversed, -1)
}

func (p *Propagator) propagate(c *particle.Particle, target geometry.Plane, b Bounds, sign float64) error {
	if target.Contains(c.Pos) {
		return nil
	}

	switch b.Region(c.Pos) {
	case UpstreamOfField:
		toEntrance, err := geometry.Distance(c.Pos, c.Dir, b.Entrance)
		if err != nil {
			return p.straight(c, target)
		}
		if toTarget, err := geometry.Distance(c.Pos, c.Dir, target); err == nil && toTarget <= toEntrance {
			return p.straight(c, target)
		}
		if err := p.straight(c, b.Entrance); err != nil {
			return err
		}
		fallthrough

	case InsideField:
		toExit, exitErr := geometry.Distance(c.Pos, c.Dir, b.Exit)
		toTarget, err := geometry.Distance(c.Pos, c.Dir, target)
		if err == nil && (exitErr != nil || toTarget < toExit) {
			return p.integrate(c, target, sign)
		}
		if exitErr == nil {
			if err := p.integrate(c, b.Exit, sign); err != nil {
				return err
			}
		}
		return p.straight(c, target)

	default:
		return p.straight(c, target)
	}
}

func (p *Propagator) straight(c *particle.Particle, target geometry.Plane) error {
	x, err := geometry.Intersect(c.Pos, c.Dir, target.Origin, target.Normal)
	if err != nil {
		return &PropagationError{Pos: c.Pos, Wrapped: err}
	}
	c.Path += r3.Norm(r3.Sub(x, c.Pos))
	c.Pos = x
	p.record(x)
	return nil
}

func (p *Propagator) integrate(c *particle.Particle, target geometry.Plane, sign float64) error {
	d0 := target.SignedDistance(c.Pos)
	if d0 == 0 {
		return nil
	}
	p.rk.SetParticle(sign*float64(c.Charge), c.P)

	x := integrators.NewState(c.Pos, c.Dir)
	path := 0.0
	prev := math.Inf(1)
	h := InitialStep
	n := 0
	// the step that exceeds MaxSteps is still taken and may converge
	for {
		n++
		x = p.rk.Step(x, h)
		path += h
		if !x.IsValid() {
			return &PropagationError{Step: n, Pos: x.Pos(), Wrapped: particle.ErrNonFinite}
		}
		p.record(x.Pos())

		res := math.Abs(target.SignedDistance(x.Pos()) / d0)
		if res < Convergence || res > prev {
			break
		}
		if n > MaxSteps {
			return &PropagationError{Step: n, Pos: x.Pos(), Wrapped: ErrNonConvergent}
		}
		prev = res
		h = Step
	}

	for i := 0; i < refineSteps; i++ {
		_, t, err := geometry.Project(x.Pos(), x.Dir(), target)
		if err != nil || math.Abs(t) < refineTolerance {
			break
		}
		x = p.rk.Step(x, t)
		path += t
	}
	p.record(x.Pos())
	p.steps += n

	p.log.Trace().
		Int("steps", n).
		Float64("path", path).
		Float64("z", x[2]).
		Msg("rk to plane")

	c.Pos = x.Pos()
	c.Dir = x.Dir()
	c.Path += path
	return nil
}

func (p *Propagator) record(pos r3.Vec) {
	if p.rec != nil {
		p.rec.Record(pos)
	}
}
