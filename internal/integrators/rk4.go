package integrators

import (
	"github.com/san-kum/fragtrack/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// RK4 integrates the Lorentz equation in path length:
//
//	dr/ds = u
//	du/ds = kappa * u x B(r)
//
// A negative step length runs the track backwards along its own
// trajectory.
type RK4 struct {
	Field physics.Field
	kappa float64

	k1, k2, k3, k4 State
	scratch        State
}

func NewRK4(f physics.Field) *RK4 {
	return &RK4{Field: f}
}

// SetParticle sets the curvature factor for charge q (units of e) and
// momentum p (GeV/c).
func (r *RK4) SetParticle(q, p float64) {
	if p == 0 {
		r.kappa = 0
		return
	}
	r.kappa = C * q / p
}

func (r *RK4) derive(x *State, out *State) {
	u := x.Dir()
	b := r.Field.At(x.Pos())
	f := r3.Scale(r.kappa, r3.Cross(u, b))
	*out = State{u.X, u.Y, u.Z, f.X, f.Y, f.Z}
}

// Step advances x by path length h and returns the new state with
// renormalized direction cosines.
func (r *RK4) Step(x State, h float64) State {
	r.derive(&x, &r.k1)

	for i := range x {
		r.scratch[i] = x[i] + h*0.5*r.k1[i]
	}
	r.derive(&r.scratch, &r.k2)

	for i := range x {
		r.scratch[i] = x[i] + h*0.5*r.k2[i]
	}
	r.derive(&r.scratch, &r.k3)

	for i := range x {
		r.scratch[i] = x[i] + h*r.k3[i]
	}
	r.derive(&r.scratch, &r.k4)

	var result State
	h6 := h / 6.0
	for i := range x {
		result[i] = x[i] + h6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	result.normalize()

	return result
}
