package tracker

import (
	"math"

	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/fitter"
	"github.com/san-kum/fragtrack/internal/particle"
)

// selectBest returns the index of the pooled candidate with the smallest
// chi-square, the first one on ties, or -1 for an empty pool.
func selectBest(pool *particle.Pool) int {
	best := -1
	for i := 0; i < pool.Len(); i++ {
		if best < 0 || pool.At(i).Chi2 < pool.At(best).Chi2 {
			best = i
		}
	}
	return best
}

// accept consumes the hits of the winning candidate, records the track and
// replays it through the setup for the per-detector diagnostics.
func (t *Tracker) accept(event int64, h Hypothesis, idx int) Track {
	c := t.pool.At(idx)
	side := t.sides[idx]

	tr := Track{
		Event:      event,
		Hypothesis: h.Name,
		Side:       side,
		Charge:     c.Charge,
		Mass:       c.Mass,
		Position:   c.StartPos,
		Momentum:   c.StartMom,
		Beta:       c.StartBeta,
		Chi2:       c.Chi2,
		NDF:        c.NDF,
		Status:     c.Status,
		Hits:       c.Hits(),
	}

	for _, d := range t.setup.Side(side) {
		if d.Section == detector.Target {
			continue
		}
		if i, ok := c.Hit(d.Name).Index(); ok {
			d.Consume(i)
		}
	}

	t.log.Debug().
		Int64("event", event).
		Str("hypothesis", h.Name).
		Stringer("side", side).
		Float64("chi2", tr.Chi2).
		Float64("p", tr.P()).
		Msg("track accepted")

	for _, o := range t.obs {
		o.ObserveTrack(tr)
	}
	if len(t.obs) > 0 {
		t.replay(event, h, side, c)
	}
	return tr
}

func (t *Tracker) replay(event int64, h Hypothesis, side detector.Side, c *particle.Particle) {
	energyLoss := t.fit.Options().EnergyLoss
	c.Reset()
	for _, d := range t.setup.Side(side) {
		if d.Section != detector.Target {
			if err := t.prop.PropagateToPlane(c, d.Plane); err != nil {
				t.log.Debug().Err(err).Str("detector", d.Name).Msg("replay stopped")
				return
			}
		}
		s := DetectorSample{
			Event:      event,
			Hypothesis: h.Name,
			Side:       side,
			Detector:   d.Name,
			Eloss:      c.ExpectedLoss(d) * 1000,
			Path:       c.Path,
		}
		if i, ok := c.Hit(d.Name).Index(); ok {
			hit := d.Hits[i]
			s.HasHit = true
			s.Measured = hit.Eloss
			if d.MeasuresX() {
				s.Residual = d.GlobalToLocal(c.Pos).X - hit.X
				s.Pull = s.Residual / d.ResX
				s.HasResidual = true
			}
			if d.Section == detector.TimeOfFlight && hit.Time > 0 {
				s.Mass, s.HasMass = tofMass(c.P, c.Path, hit.Time)
			}
		}
		for _, o := range t.obs {
			o.ObserveDetector(s)
		}

		if energyLoss && d.Section != detector.TimeOfFlight {
			w := 1.0
			if d.Section == detector.Target {
				w = fitter.TargetWeight
			}
			if err := c.PassThrough(d, w); err != nil {
				return
			}
		}
	}
}

// speed of light, cm/ns
const lightSpeed = 29.9792458

// tofMass reconstructs the mass from the momentum and the velocity given by
// the flight path and time.
func tofMass(p, path, time float64) (float64, bool) {
	beta := path / (time * lightSpeed)
	if beta <= 0 || beta >= 1 {
		return 0, false
	}
	return p * math.Sqrt(1/(beta*beta)-1), true
}
