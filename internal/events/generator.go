package events

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/particle"
	"github.com/san-kum/fragtrack/internal/propagator"
	"gonum.org/v1/gonum/spatial/r3"
)

// Species is a fragment emitted from the target by the generator.
type Species struct {
	Name     string
	Charge   int
	Mass     float64 // GeV/c^2
	Momentum float64 // GeV/c
}

// Generator produces events by propagating fragments from the target
// through the setup and recording where they cross each detector.
type Generator struct {
	Setup       *detector.Setup
	Propagator  *propagator.Propagator
	Calibration detector.Calibration
	Species     []Species

	Spread     float64 // rad
	Noise      float64 // mean noise hits per detector
	Smear      bool
	EnergyLoss bool
	Limit      int64 // events returned by Next; 0 is unlimited

	rng  *rand.Rand
	next int64
}

func NewGenerator(setup *detector.Setup, prop *propagator.Propagator, species []Species, seed int64) *Generator {
	return &Generator{
		Setup:       setup,
		Propagator:  prop,
		Calibration: detector.DefaultCalibration(),
		Species:     species,
		Smear:       true,
		EnergyLoss:  true,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (g *Generator) Next() (*Event, error) {
	if g.Limit > 0 && g.next >= g.Limit {
		return nil, io.EOF
	}
	ev, err := g.Generate(g.next)
	g.next++
	return ev, err
}

// Generate builds event n with one fragment per species. Fragments that
// leave the acceptance of a detector leave no hit there.
func (g *Generator) Generate(n int64) (*Event, error) {
	ev := &Event{Number: n, Hits: make(map[string][]detector.Hit)}
	for _, s := range g.Species {
		if err := g.emit(ev, s); err != nil {
			return nil, fmt.Errorf("event %d, %s: %w", n, s.Name, err)
		}
	}
	for _, d := range g.Setup.Detectors() {
		if d.Section == detector.Target {
			continue
		}
		for k := g.poisson(g.Noise); k > 0; k-- {
			ev.Hits[d.Name] = append(ev.Hits[d.Name], g.noiseHit(d))
		}
	}
	return ev, nil
}

func (g *Generator) emit(ev *Event, s Species) error {
	dir := r3.Unit(r3.Vec{X: g.rng.NormFloat64() * g.Spread, Y: g.rng.NormFloat64() * g.Spread, Z: 1})

	hits, tofX, err := g.trace(s, dir, detector.Left)
	if err != nil {
		return err
	}
	if side, ok := detector.SideOf(tofX); ok && side == detector.Right {
		if hits, _, err = g.trace(s, dir, detector.Right); err != nil {
			return err
		}
	}
	for name, h := range hits {
		ev.Hits[name] = append(ev.Hits[name], h)
	}
	return nil
}

// trace propagates one fragment along a side and returns its hits and the
// local x at the time-of-flight wall.
func (g *Generator) trace(s Species, dir r3.Vec, side detector.Side) (map[string]detector.Hit, float64, error) {
	c := particle.New(s.Charge, s.Mass, 0.5)
	c.SetStart(r3.Vec{}, r3.Scale(s.Momentum, dir))
	c.Reset()

	hits := make(map[string]detector.Hit)
	tofX := 0.0
	for _, d := range g.Setup.Side(side) {
		if d.Section != detector.Target {
			if err := g.Propagator.PropagateToPlane(c, d.Plane); err != nil {
				return nil, 0, fmt.Errorf("%s: %w", d.Name, err)
			}
		}
		if d.Accepts(c.Pos) {
			l := d.GlobalToLocal(c.Pos)
			h := detector.Hit{X: l.X, Y: l.Y, Eloss: c.ExpectedLoss(d), Time: c.Path / (c.Beta * 29.9792458)}
			if d.Section == detector.TimeOfFlight {
				h.Eloss = g.Calibration.Eloss(s.Charge)
				tofX = l.X
			}
			if g.Smear {
				h.X += g.rng.NormFloat64() * d.ResX
				h.Y += g.rng.NormFloat64() * d.ResY
			}
			hits[d.Name] = h
		}
		if g.EnergyLoss && d.Section != detector.TimeOfFlight {
			w := 1.0
			if d.Section == detector.Target {
				w = 0.5
			}
			if err := c.PassThrough(d, w); err != nil {
				return nil, 0, fmt.Errorf("%s: %w", d.Name, err)
			}
		}
	}
	return hits, tofX, nil
}

func (g *Generator) noiseHit(d *detector.Detector) detector.Hit {
	w, h := d.Width, d.Height
	if w == 0 {
		w = 100
	}
	if h == 0 {
		h = 100
	}
	return detector.Hit{
		X:     (g.rng.Float64() - 0.5) * w,
		Y:     (g.rng.Float64() - 0.5) * h,
		Eloss: g.rng.Float64() * 0.001,
	}
}

func (g *Generator) poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	l, k, p := math.Exp(-mean), 0, 1.0
	for {
		p *= g.rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
