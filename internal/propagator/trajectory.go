package propagator

import "gonum.org/v1/gonum/spatial/r3"

// Trajectory is a Recorder keeping every point.
type Trajectory struct {
	Points []r3.Vec
}

func (t *Trajectory) Record(pos r3.Vec) {
	t.Points = append(t.Points, pos)
}

func (t *Trajectory) Reset() {
	t.Points = t.Points[:0]
}
