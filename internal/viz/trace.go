package viz

import (
	"fmt"

	"github.com/san-kum/fragtrack/internal/config"
	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/particle"
	"github.com/san-kum/fragtrack/internal/propagator"
	"github.com/san-kum/fragtrack/internal/tracker"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tracer redraws accepted tracks through the setup. It owns its setup and
// propagator so it can run beside the tracking loop.
type Tracer struct {
	setup *detector.Setup
	prop  *propagator.Propagator
	traj  *propagator.Trajectory
}

func NewTracer(cfg *config.Config) (*Tracer, error) {
	setup, err := cfg.BuildSetup()
	if err != nil {
		return nil, err
	}
	field, err := cfg.BuildField()
	if err != nil {
		return nil, err
	}
	traj := &propagator.Trajectory{}
	prop, err := propagator.New(field, cfg.Volume(), propagator.WithRecorder(traj))
	if err != nil {
		return nil, err
	}
	return &Tracer{setup: setup, prop: prop, traj: traj}, nil
}

// Trace returns the path of t from the target to the last detector of its
// side. Energy loss is ignored. On error the path up to the failure is
// returned.
func (tr *Tracer) Trace(t tracker.Track) ([]r3.Vec, error) {
	tr.traj.Reset()
	c := particle.New(t.Charge, t.Mass, t.Beta)
	c.SetStart(t.Position, t.Momentum)
	c.Reset()

	path := []r3.Vec{t.Position}
	var err error
	for _, d := range tr.setup.Side(t.Side) {
		if d.Section == detector.Target {
			continue
		}
		if err = tr.prop.PropagateToPlane(c, d.Plane); err != nil {
			err = fmt.Errorf("%s: %w", d.Name, err)
			break
		}
		tr.traj.Record(c.Pos)
	}
	return append(path, tr.traj.Points...), err
}

// Segment is a detector drawn in the top view.
type Segment struct {
	Name string
	From r3.Vec
	To   r3.Vec
}

// Planes returns the detectors as segments along their local x axis.
func (tr *Tracer) Planes() []Segment {
	var out []Segment
	for _, d := range tr.setup.Detectors() {
		half := d.Width / 2
		if half == 0 {
			half = 10
		}
		out = append(out, Segment{
			Name: d.Name,
			From: r3.Add(d.Frame.Origin, r3.Scale(-half, d.Frame.Ex)),
			To:   r3.Add(d.Frame.Origin, r3.Scale(half, d.Frame.Ex)),
		})
	}
	return out
}
