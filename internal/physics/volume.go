package physics

import (
	"math"

	"github.com/san-kum/fragtrack/internal/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Volume is the magnet region in the magnet's own frame. YAngle is in
// degrees, the remaining lengths in cm.
type Volume struct {
	Position r3.Vec
	YAngle   float64
	XMax     float64
	YMax     float64
	ZMin     float64
	ZMax     float64
}

// Planes returns the entrance and exit boundary planes in the laboratory
// frame. Both normals point downstream.
func (v Volume) Planes() (entrance, exit geometry.Plane, err error) {
	entrance, err = v.plane(v.ZMin)
	if err != nil {
		return
	}
	exit, err = v.plane(v.ZMax)
	return
}

func (v Volume) plane(z float64) (geometry.Plane, error) {
	p, err := geometry.NewPlane(
		r3.Vec{Z: z},
		r3.Vec{X: v.XMax, Y: v.YMax, Z: z},
		r3.Vec{X: -v.XMax, Y: v.YMax, Z: z},
	)
	if err != nil {
		return geometry.Plane{}, err
	}
	return p.Transform(v.YAngle*math.Pi/180, v.Position), nil
}
