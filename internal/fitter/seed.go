package fitter

import (
	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

// seedForward points the start momentum at the first assigned hit in front
// of the magnet. Without one the seed direction is kept.
func seedForward(c *particle.Particle, dets []*detector.Detector) r3.Vec {
	for _, d := range dets {
		if d.Section != detector.BetweenMagnetRegions {
			continue
		}
		if i, ok := c.Hit(d.Name).Index(); ok {
			dir := r3.Sub(d.Position(i), c.StartPos)
			if dir.Z > 0 {
				return r3.Scale(c.P, r3.Unit(dir))
			}
		}
	}
	return c.Momentum()
}

// seedBackward points a reversed candidate from the time-of-flight hit to
// the closest assigned hit upstream of it, or to the target.
func seedBackward(c *particle.Particle, dets []*detector.Detector, origin r3.Vec) r3.Vec {
	to := c.StartPos
	for i := len(dets) - 2; i > 0; i-- {
		d := dets[i]
		if j, ok := c.Hit(d.Name).Index(); ok {
			to = d.Position(j)
			break
		}
	}
	dir := r3.Sub(to, origin)
	if dir.Z >= 0 {
		dir = r3.Vec{Z: -1}
	}
	return r3.Scale(c.P, r3.Unit(dir))
}
