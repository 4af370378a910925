package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Tolerance is the distance below which a point is considered to lie on a plane.
const Tolerance = 1e-6

// Plane is an oriented plane spanned by three points. U and V are the
// points defining the local x and y directions relative to Origin.
type Plane struct {
	Origin r3.Vec
	U      r3.Vec
	V      r3.Vec
	Normal r3.Vec
}

// NewPlane builds the plane through p0, p1, p2 with normal
// unit((p1-p0) x (p2-p0)).
func NewPlane(p0, p1, p2 r3.Vec) (Plane, error) {
	n := r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0))
	if r3.Norm(n) == 0 {
		return Plane{}, ErrDegenerate
	}
	return Plane{Origin: p0, U: p1, V: p2, Normal: r3.Unit(n)}, nil
}

// Flipped returns the same surface with the in-plane points swapped, which
// reverses the normal.
func (p Plane) Flipped() Plane {
	return Plane{Origin: p.Origin, U: p.V, V: p.U, Normal: r3.Scale(-1, p.Normal)}
}

// SignedDistance is positive on the side the normal points to.
func (p Plane) SignedDistance(x r3.Vec) float64 {
	return r3.Dot(r3.Sub(x, p.Origin), p.Normal)
}

func (p Plane) Contains(x r3.Vec) bool {
	return math.Abs(p.SignedDistance(x)) < Tolerance
}

// Transform rotates the plane about the y axis by angle (radians) and then
// translates it by shift.
func (p Plane) Transform(angle float64, shift r3.Vec) Plane {
	rot := r3.NewRotation(angle, r3.Vec{Y: 1})
	move := func(v r3.Vec) r3.Vec { return r3.Add(rot.Rotate(v), shift) }
	return Plane{
		Origin: move(p.Origin),
		U:      move(p.U),
		V:      move(p.V),
		Normal: rot.Rotate(p.Normal),
	}
}

// Intersect returns the point where the ray origin + t*dir (t >= 0) meets
// the plane through planePoint with the given normal.
func Intersect(origin, dir, planePoint, normal r3.Vec) (r3.Vec, error) {
	t, err := rayParameter(origin, dir, planePoint, normal)
	if err != nil {
		return r3.Vec{}, err
	}
	if t < 0 {
		return r3.Vec{}, ErrBehindOrigin
	}
	return r3.Add(origin, r3.Scale(t, dir)), nil
}

// Distance returns the ray parameter t of the forward intersection. For a
// unit direction it is the straight-line path length to the plane.
func Distance(origin, dir r3.Vec, p Plane) (float64, error) {
	t, err := rayParameter(origin, dir, p.Origin, p.Normal)
	if err != nil {
		return 0, err
	}
	if t < 0 {
		return 0, ErrBehindOrigin
	}
	return t, nil
}

// Project is Intersect without the forward restriction. The returned t is
// negative when the plane lies behind origin.
func Project(origin, dir r3.Vec, p Plane) (r3.Vec, float64, error) {
	t, err := rayParameter(origin, dir, p.Origin, p.Normal)
	if err != nil {
		return r3.Vec{}, 0, err
	}
	return r3.Add(origin, r3.Scale(t, dir)), t, nil
}

func rayParameter(origin, dir, planePoint, normal r3.Vec) (float64, error) {
	pn := r3.Dot(dir, normal)
	if pn == 0 {
		return 0, ErrDegenerate
	}
	return r3.Dot(r3.Sub(planePoint, origin), normal) / pn, nil
}
