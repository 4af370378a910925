package integrators

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// C converts charge/momentum and field into track curvature:
// kappa [1/cm] = C * q [e] * B [kG] / p [GeV/c].
const C = 2.99792458e-4

// State is a track point: position (0..2, cm) and direction cosines (3..5).
type State [6]float64

func NewState(pos, dir r3.Vec) State {
	d := r3.Unit(dir)
	return State{pos.X, pos.Y, pos.Z, d.X, d.Y, d.Z}
}

func (s State) Pos() r3.Vec { return r3.Vec{X: s[0], Y: s[1], Z: s[2]} }
func (s State) Dir() r3.Vec { return r3.Vec{X: s[3], Y: s[4], Z: s[5]} }

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s *State) normalize() {
	n := math.Sqrt(s[3]*s[3] + s[4]*s[4] + s[5]*s[5])
	if n == 0 {
		return
	}
	s[3] /= n
	s[4] /= n
	s[5] /= n
}
