// Package geometry holds the plane primitives the propagator and the
// detectors are built on.
//
// Vectors are [r3.Vec] values from gonum. A [Plane] is defined by three
// points and caches its unit normal:
//
//	pl, err := geometry.NewPlane(p0, p1, p2)
//	hit, err := geometry.Intersect(pos, dir, pl.Origin, pl.Normal)
//
// [Intersect] only moves forward along the ray; [Project] accepts a
// negative parameter and is used to close the last integration step onto
// a plane.
package geometry
