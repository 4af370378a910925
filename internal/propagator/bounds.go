package propagator

import (
	"github.com/san-kum/fragtrack/internal/geometry"
	"github.com/san-kum/fragtrack/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Region is the position of a point relative to the field volume along the
// direction of travel.
type Region int

const (
	UpstreamOfField Region = iota
	InsideField
	DownstreamOfField
)

func (r Region) String() string {
	switch r {
	case UpstreamOfField:
		return "upstream"
	case InsideField:
		return "inside"
	}
	return "downstream"
}

// Bounds are the entrance and exit planes of the field volume, normals
// pointing in the direction of travel.
type Bounds struct {
	Entrance geometry.Plane
	Exit     geometry.Plane
}

func BoundsOf(v physics.Volume) (Bounds, error) {
	in, out, err := v.Planes()
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Entrance: in, Exit: out}, nil
}

// Reversed returns the bounds as seen by a track moving upstream.
func (b Bounds) Reversed() Bounds {
	return Bounds{Entrance: b.Exit.Flipped(), Exit: b.Entrance.Flipped()}
}

func (b Bounds) Region(pos r3.Vec) Region {
	if b.Entrance.SignedDistance(pos) < -geometry.Tolerance {
		return UpstreamOfField
	}
	if b.Exit.SignedDistance(pos) > geometry.Tolerance {
		return DownstreamOfField
	}
	return InsideField
}
