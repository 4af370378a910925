package geometry

import "gonum.org/v1/gonum/spatial/r3"

// Frame is an orthonormal local coordinate system attached to a plane.
// Local x runs from Origin towards Plane.U, local z along the normal.
type Frame struct {
	Origin     r3.Vec
	Ex, Ey, Ez r3.Vec
}

func NewFrame(p Plane) Frame {
	ex := r3.Unit(r3.Sub(p.U, p.Origin))
	ez := p.Normal
	ey := r3.Cross(ez, ex)
	return Frame{Origin: p.Origin, Ex: ex, Ey: ey, Ez: ez}
}

func (f Frame) GlobalToLocal(x r3.Vec) r3.Vec {
	d := r3.Sub(x, f.Origin)
	return r3.Vec{X: r3.Dot(d, f.Ex), Y: r3.Dot(d, f.Ey), Z: r3.Dot(d, f.Ez)}
}

func (f Frame) LocalToGlobal(l r3.Vec) r3.Vec {
	g := r3.Add(r3.Scale(l.X, f.Ex), r3.Scale(l.Y, f.Ey))
	g = r3.Add(g, r3.Scale(l.Z, f.Ez))
	return r3.Add(f.Origin, g)
}
