package fitter

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/san-kum/fragtrack/internal/config"
	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/events"
	"github.com/san-kum/fragtrack/internal/particle"
	"github.com/san-kum/fragtrack/internal/propagator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type env struct {
	setup *detector.Setup
	prop  *propagator.Propagator
	ev    *events.Event
}

func newEnv(t *testing.T) env {
	t.Helper()
	cfg := config.DefaultConfig()
	setup, err := cfg.BuildSetup()
	require.NoError(t, err)
	field, err := cfg.BuildField()
	require.NoError(t, err)
	prop, err := propagator.New(field, cfg.Volume())
	require.NoError(t, err)

	gen := events.NewGenerator(setup, prop, []events.Species{{Name: "12C", Charge: 6, Mass: 11.1749, Momentum: 9.666}}, 3)
	gen.Smear = false
	gen.Spread = 0.01
	ev, err := gen.Generate(0)
	require.NoError(t, err)
	setup.Load(ev.Hits)
	return env{setup: setup, prop: prop, ev: ev}
}

// candidate assigns the first hit of every left-side detector.
func (e env) candidate(p float64) *particle.Particle {
	c := particle.New(6, 11.1749, 0.65)
	c.SetStart(r3.Vec{}, r3.Vec{Z: p})
	c.Reset()
	for _, d := range e.setup.Side(detector.Left) {
		if len(d.Hits) > 0 {
			c.SetHit(d.Name, detector.At(0))
		}
	}
	return c
}

func TestForwardFitRecoversMomentum(t *testing.T) {
	e := newEnv(t)
	f := New(e.prop, DefaultOptions(), zerolog.Nop())

	c := e.candidate(9.2)
	require.NoError(t, f.Fit(c, e.setup.Side(detector.Left)))

	assert.Less(t, c.Status, StatusThreshold)
	assert.InEpsilon(t, 9.666, r3.Norm(c.StartMom), 0.01)
	assert.Less(t, c.Chi2, 1.0)
	assert.Equal(t, c.StartPos, c.Pos, "fit leaves the candidate at its start")
}

func TestBackwardFitStartsAtTarget(t *testing.T) {
	e := newEnv(t)
	opts := DefaultOptions()
	opts.Direction = Backward
	f := New(e.prop, opts, zerolog.Nop())

	c := e.candidate(9.666)
	require.NoError(t, f.Fit(c, e.setup.Side(detector.Left)))

	assert.Less(t, c.Status, StatusThreshold)
	assert.InDelta(t, 0, c.StartPos.Z, 1e-6)
	assert.Greater(t, c.StartMom.Z, 0.0)
	assert.InEpsilon(t, 9.666, r3.Norm(c.StartMom), 0.03)
}

func TestBackwardFitNeedsTimeOfFlightHit(t *testing.T) {
	e := newEnv(t)
	opts := DefaultOptions()
	opts.Direction = Backward
	f := New(e.prop, opts, zerolog.Nop())

	c := e.candidate(9.666)
	c.SetHit("tofd", detector.Absent)
	assert.Error(t, f.Fit(c, e.setup.Side(detector.Left)))
}

func TestAbsentHitsContributeNothing(t *testing.T) {
	e := newEnv(t)
	f := New(e.prop, DefaultOptions(), zerolog.Nop())

	truth := e.candidate(9.666)
	require.NoError(t, f.Fit(truth, e.setup.Side(detector.Left)))

	c := particle.New(6, 11.1749, 0.65)
	c.SetStart(truth.StartPos, truth.StartMom)
	c.SetHit("tofd", detector.At(0))
	chi2, err := f.ForwardChi2(c, e.setup.Side(detector.Left))
	require.NoError(t, err)
	assert.Equal(t, 2, c.NDF, "tofd measures x and y")
	assert.Less(t, chi2, 1e-3)
}

func TestChi2GrowsAlongTheTrack(t *testing.T) {
	e := newEnv(t)
	c := e.candidate(8.5)

	c.Reset()
	prev := 0.0
	for _, d := range e.setup.Side(detector.Left) {
		if d.Section != detector.Target {
			require.NoError(t, e.prop.PropagateToPlane(c, d.Plane))
		}
		residual(c, d)
		assert.GreaterOrEqual(t, c.Chi2, prev, d.Name)
		prev = c.Chi2
	}
	assert.Greater(t, prev, 0.0)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("backward")
	require.NoError(t, err)
	assert.Equal(t, Backward, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
