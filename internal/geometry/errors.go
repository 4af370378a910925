package geometry

import "errors"

var (
	// ErrDegenerate is returned for rays parallel to a plane and for planes
	// built from collinear points.
	ErrDegenerate = errors.New("geometry: degenerate plane or ray")

	// ErrBehindOrigin is returned when the plane lies behind the ray origin.
	ErrBehindOrigin = errors.New("geometry: plane behind ray origin")
)
