package particle

import (
	"math"
	"testing"

	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestMomentumBetaRoundTrip(t *testing.T) {
	m := 11.1749
	p := MomentumFromBeta(m, 0.65)
	assert.InDelta(t, 0.65, BetaFromMomentum(m, p), 1e-12)
	assert.Zero(t, MomentumFromBeta(m, 1))
}

func TestResetRestoresStart(t *testing.T) {
	p := New(6, 11.1749, 0.65)
	p.SetStart(r3.Vec{X: 1}, r3.Vec{X: 0.1, Z: 9.666})
	p.Reset()
	p.Pos = r3.Vec{Z: 500}
	p.Path = 500
	p.AddChi2(2.5)

	p.Reset()
	assert.Equal(t, r3.Vec{X: 1}, p.Pos)
	assert.InDelta(t, math.Hypot(0.1, 9.666), p.P, 1e-12)
	assert.Zero(t, p.Path)
	assert.Equal(t, 2.5, p.Chi2)
	assert.Equal(t, 1, p.NDF)
}

func TestUpdateMomentumKeepsDirection(t *testing.T) {
	p := New(2, 3.7284, 0.65)
	p.StartMom = r3.Vec{X: 1, Z: 1}
	p.UpdateMomentum()
	want := MomentumFromBeta(3.7284, 0.65)
	assert.InDelta(t, want, r3.Norm(p.StartMom), 1e-12)
	assert.InDelta(t, p.StartMom.X, p.StartMom.Z, 1e-12)
}

func TestCheckFinite(t *testing.T) {
	p := New(6, 11.1749, 0.65)
	require.NoError(t, p.CheckFinite())
	p.StartMom.Z = math.NaN()
	assert.ErrorIs(t, p.CheckFinite(), ErrNonFinite)
}

func TestPassThrough(t *testing.T) {
	pl, err := geometry.NewPlane(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1})
	require.NoError(t, err)
	d := detector.New("f", detector.BetweenMagnetRegions, pl)
	d.Material = detector.Plastic(0.1)

	p := New(6, 11.1749, 0.65)
	p0 := p.P
	require.NoError(t, p.PassThrough(d, 1))
	assert.Less(t, p.P, p0)
	require.NoError(t, p.PassThrough(d, -1))
	assert.InDelta(t, p0, p.P, 1e-4)

	d.Material.Thickness = 1e6
	assert.ErrorIs(t, p.PassThrough(d, 1), ErrStopped)
}

func TestHits(t *testing.T) {
	p := New(6, 11.1749, 0.65)
	p.SetHit("b", detector.At(2))
	p.SetHit("a", detector.At(0))
	p.SetHit("c", detector.Absent)

	assert.Equal(t, map[string]int{"a": 0, "b": 2}, p.Hits())
	assert.Equal(t, []string{"a", "b"}, p.HitNames())
	_, ok := p.Hit("zzz").Index()
	assert.False(t, ok)
}

func TestPoolReuse(t *testing.T) {
	pool := NewPool(2)
	a := pool.Get(6, 11.1749, 0.65)
	a.SetHit("x", detector.At(1))
	a.AddChi2(3)
	pool.Get(6, 11.1749, 0.65)
	assert.Equal(t, 2, pool.Len())

	pool.Release()
	b := pool.Get(2, 3.7284, 0.65)
	assert.Same(t, a, b)
	assert.Zero(t, b.Chi2)
	assert.Empty(t, b.Hits())
	assert.Equal(t, 2, b.Charge)
}
