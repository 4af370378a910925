// Package particle holds the mutable state of a track candidate while it is
// fitted and propagated.
package particle

import (
	"errors"
	"math"
	"sort"

	"github.com/san-kum/fragtrack/internal/detector"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrNonFinite = errors.New("particle: non-finite momentum")
	ErrStopped   = errors.New("particle: stopped in detector material")
)

// Particle is a charged track candidate. Start* is the state at the
// target; the remaining kinematic fields follow the particle as it is
// propagated.
type Particle struct {
	Charge int
	Mass   float64 // GeV/c^2

	StartPos  r3.Vec
	StartMom  r3.Vec // GeV/c
	StartBeta float64

	Pos  r3.Vec
	Dir  r3.Vec
	P    float64 // GeV/c
	Beta float64
	Path float64 // cm

	Chi2   float64
	NDF    int
	Status int

	hits map[string]detector.HitRef
}

// New returns a particle at the origin moving along +z with the velocity
// beta.
func New(charge int, mass, beta float64) *Particle {
	p := &Particle{}
	p.Init(charge, mass, beta)
	return p
}

// Init reinitializes p in place, keeping the allocated hit map.
func (p *Particle) Init(charge int, mass, beta float64) {
	hits := p.hits
	clear(hits)
	*p = Particle{Charge: charge, Mass: mass, StartBeta: beta, hits: hits}
	p.StartMom = r3.Vec{Z: MomentumFromBeta(mass, beta)}
	p.Reset()
}

// Reset moves the particle back to its start state and clears the path
// length. Chi-square and status are kept.
func (p *Particle) Reset() {
	p.Pos = p.StartPos
	p.P = r3.Norm(p.StartMom)
	if p.P > 0 {
		p.Dir = r3.Scale(1/p.P, p.StartMom)
	} else {
		p.Dir = r3.Vec{Z: 1}
	}
	p.Beta = BetaFromMomentum(p.Mass, p.P)
	p.Path = 0
}

func (p *Particle) Momentum() r3.Vec { return r3.Scale(p.P, p.Dir) }

// SetStart sets the start state from a position and a momentum vector.
func (p *Particle) SetStart(pos, mom r3.Vec) {
	p.StartPos = pos
	p.StartMom = mom
	p.StartBeta = BetaFromMomentum(p.Mass, r3.Norm(mom))
}

// UpdateMomentum rescales the start momentum to the magnitude implied by
// the start velocity.
func (p *Particle) UpdateMomentum() {
	n := r3.Norm(p.StartMom)
	if n == 0 {
		p.StartMom = r3.Vec{Z: MomentumFromBeta(p.Mass, p.StartBeta)}
		return
	}
	p.StartMom = r3.Scale(MomentumFromBeta(p.Mass, p.StartBeta)/n, p.StartMom)
}

func (p *Particle) AddChi2(v float64) {
	p.Chi2 += v
	p.NDF++
}

func (p *Particle) ClearChi2() {
	p.Chi2 = 0
	p.NDF = 0
}

// CheckFinite reports ErrNonFinite when any start momentum component or
// the current momentum is NaN or infinite.
func (p *Particle) CheckFinite() error {
	for _, v := range []float64{p.StartMom.X, p.StartMom.Y, p.StartMom.Z, p.P} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}
	return nil
}

// PassThrough applies the mean energy loss in det scaled by weight. A
// negative weight adds the energy back, as needed when tracing upstream.
func (p *Particle) PassThrough(det *detector.Detector, weight float64) error {
	de := weight * det.EnergyLoss(p.Charge, p.Beta)
	if de == 0 {
		return nil
	}
	e := math.Hypot(p.P, p.Mass) - de
	if e <= p.Mass {
		return ErrStopped
	}
	p.P = math.Sqrt(e*e - p.Mass*p.Mass)
	p.Beta = p.P / e
	return nil
}

// ExpectedLoss is the energy deposit in det for the current velocity, in GeV.
func (p *Particle) ExpectedLoss(det *detector.Detector) float64 {
	return det.EnergyLoss(p.Charge, p.Beta)
}

func (p *Particle) SetHit(det string, ref detector.HitRef) {
	if p.hits == nil {
		p.hits = make(map[string]detector.HitRef)
	}
	p.hits[det] = ref
}

// Hit returns the reference assigned to det; unassigned detectors are
// Absent.
func (p *Particle) Hit(det string) detector.HitRef {
	return p.hits[det]
}

// Hits returns a copy of the present hit assignments.
func (p *Particle) Hits() map[string]int {
	out := make(map[string]int, len(p.hits))
	for name, ref := range p.hits {
		if i, ok := ref.Index(); ok {
			out[name] = i
		}
	}
	return out
}

// HitNames lists the detectors with a present hit in sorted order.
func (p *Particle) HitNames() []string {
	var names []string
	for name, ref := range p.hits {
		if _, ok := ref.Index(); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func MomentumFromBeta(mass, beta float64) float64 {
	if beta <= 0 || beta >= 1 {
		return 0
	}
	return mass * beta / math.Sqrt(1-beta*beta)
}

func BetaFromMomentum(mass, p float64) float64 {
	if p == 0 {
		return 0
	}
	return p / math.Hypot(p, mass)
}
