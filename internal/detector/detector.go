package detector

import (
	"math"

	"github.com/san-kum/fragtrack/internal/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// MinResolution is the smallest resolution treated as a real measurement.
const MinResolution = 1e-6

// Material holds what the energy-loss model needs about a detector.
type Material struct {
	Density        float64 // g/cm^3
	Thickness      float64 // cm
	ZOverA         float64
	MeanExcitation float64 // eV
}

// Plastic is polystyrene-based scintillator as used by fibre and ToF
// detectors.
func Plastic(thickness float64) Material {
	return Material{Density: 1.06, Thickness: thickness, ZOverA: 0.53768, MeanExcitation: 68.7}
}

type Detector struct {
	Name     string
	Section  Section
	Plane    geometry.Plane
	Frame    geometry.Frame
	ResX     float64 // cm
	ResY     float64 // cm
	Material Material

	// Active area around the plane origin; zero means unbounded.
	Width  float64
	Height float64

	Hits     []Hit
	consumed []bool
}

func New(name string, sec Section, plane geometry.Plane) *Detector {
	return &Detector{
		Name:    name,
		Section: sec,
		Plane:   plane,
		Frame:   geometry.NewFrame(plane),
	}
}

// Load replaces the hits with those of a new event and clears every
// consumed flag.
func (d *Detector) Load(hits []Hit) {
	d.Hits = append(d.Hits[:0], hits...)
	if cap(d.consumed) >= len(hits) {
		d.consumed = d.consumed[:len(hits)]
		clear(d.consumed)
	} else {
		d.consumed = make([]bool, len(hits))
	}
}

func (d *Detector) Consume(i int) {
	d.consumed[i] = true
}

func (d *Detector) Consumed(i int) bool {
	return d.consumed[i]
}

// Free counts the hits not yet used by an accepted track.
func (d *Detector) Free() int {
	n := 0
	for _, c := range d.consumed {
		if !c {
			n++
		}
	}
	return n
}

func (d *Detector) GlobalToLocal(x r3.Vec) r3.Vec {
	return d.Frame.GlobalToLocal(x)
}

// Position returns the laboratory position of hit i.
func (d *Detector) Position(i int) r3.Vec {
	h := d.Hits[i]
	return d.Frame.LocalToGlobal(r3.Vec{X: h.X, Y: h.Y})
}

// Accepts reports whether a global point lies in the active area.
func (d *Detector) Accepts(x r3.Vec) bool {
	l := d.Frame.GlobalToLocal(x)
	if d.Width > 0 && math.Abs(l.X) > d.Width/2 {
		return false
	}
	if d.Height > 0 && math.Abs(l.Y) > d.Height/2 {
		return false
	}
	return true
}

func (d *Detector) MeasuresX() bool { return d.ResX > MinResolution }
func (d *Detector) MeasuresY() bool { return d.ResY > MinResolution }

const (
	betheK      = 0.307075   // MeV cm^2 / mol
	electronMev = 0.51099895 // MeV
)

// EnergyLoss returns the mean energy deposited in the detector in GeV by an
// ion of charge z moving with velocity beta, following the Bethe formula
// without shell and density corrections.
func (d *Detector) EnergyLoss(z int, beta float64) float64 {
	m := d.Material
	if m.Thickness <= 0 || m.Density <= 0 || beta <= 0 || beta >= 1 {
		return 0
	}
	b2 := beta * beta
	g2 := 1 / (1 - b2)
	arg := 2 * electronMev * 1e6 * b2 * g2 / m.MeanExcitation
	if arg <= 1 {
		return 0
	}
	dedx := betheK * float64(z*z) * m.ZOverA / b2 * (math.Log(arg) - b2)
	if dedx < 0 {
		return 0
	}
	return dedx * m.Density * m.Thickness / 1000
}
