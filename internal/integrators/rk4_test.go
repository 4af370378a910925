package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/fragtrack/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRK4StraightLine(t *testing.T) {
	rk := NewRK4(physics.NewUniform(0, 0, 0))
	rk.SetParticle(6, 9.666)
	x := NewState(r3.Vec{X: 1}, r3.Vec{X: 0.1, Z: 1})

	for i := 0; i < 100; i++ {
		x = rk.Step(x, 1.0)
	}

	want := r3.Add(r3.Vec{X: 1}, r3.Scale(100, r3.Unit(r3.Vec{X: 0.1, Z: 1})))
	if d := r3.Norm(r3.Sub(x.Pos(), want)); d > 1e-9 {
		t.Errorf("zero field drift %e", d)
	}
}

func TestRK4Circle(t *testing.T) {
	// q=1, p=1 GeV/c in 10 kG: radius 1/(C*10) cm
	rk := NewRK4(physics.NewUniform(0, 10, 0))
	rk.SetParticle(1, 1)
	radius := 1 / (C * 10)

	x := NewState(r3.Vec{}, r3.Vec{Z: 1})
	n := 1000
	h := 2 * math.Pi * radius / float64(n)
	for i := 0; i < n; i++ {
		x = rk.Step(x, h)
	}

	if d := r3.Norm(x.Pos()); d > 1e-6*radius {
		t.Errorf("full turn should close: distance %e cm (radius %.1f)", d, radius)
	}
	if math.Abs(r3.Norm(x.Dir())-1) > 1e-12 {
		t.Errorf("direction not normalized: %v", x.Dir())
	}
}

func TestRK4Reversible(t *testing.T) {
	rk := NewRK4(physics.NewUniform(0, -12, 0))
	rk.SetParticle(6, 9.666)
	start := NewState(r3.Vec{Y: 2}, r3.Vec{X: 0.05, Y: 0.01, Z: 1})

	x := start
	for i := 0; i < 200; i++ {
		x = rk.Step(x, 1.0)
	}
	for i := 0; i < 200; i++ {
		x = rk.Step(x, -1.0)
	}

	for i := range x {
		if math.Abs(x[i]-start[i]) > 1e-8 {
			t.Fatalf("component %d: got %v, want %v", i, x[i], start[i])
		}
	}
}
