package physics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Field returns the magnetic field vector at a point.
type Field interface {
	At(pos r3.Vec) r3.Vec
}

// Configurable exposes named scalar parameters.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Uniform is a constant field.
type Uniform struct {
	B r3.Vec
}

func NewUniform(bx, by, bz float64) *Uniform {
	return &Uniform{B: r3.Vec{X: bx, Y: by, Z: bz}}
}

func (u *Uniform) At(r3.Vec) r3.Vec { return u.B }

func (u *Uniform) GetParams() map[string]float64 {
	return map[string]float64{"bx": u.B.X, "by": u.B.Y, "bz": u.B.Z}
}

func (u *Uniform) SetParam(n string, v float64) error {
	switch n {
	case "bx":
		u.B.X = v
	case "by":
		u.B.Y = v
	case "bz":
		u.B.Z = v
	default:
		return fmt.Errorf("uniform field: unknown parameter %q", n)
	}
	return nil
}

// Scaled multiplies another field by Scale. The fragment setups use it for
// the tracker correction applied on top of the measured map.
type Scaled struct {
	Field Field
	Scale float64
}

func (s Scaled) At(pos r3.Vec) r3.Vec {
	return r3.Scale(s.Scale, s.Field.At(pos))
}
