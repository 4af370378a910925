package integrators

import (
	"strings"
	"testing"

	"github.com/san-kum/fragtrack/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

func BenchmarkRK4Uniform(b *testing.B) {
	rk := NewRK4(physics.NewUniform(0, 10, 0))
	rk.SetParticle(6, 9.666)
	x := NewState(r3.Vec{}, r3.Vec{Z: 1})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = rk.Step(x, 1.0)
	}
}

func BenchmarkRK4Map(b *testing.B) {
	m, err := physics.ReadMap(strings.NewReader("2 2 2\n-100 100 -100 100 -100 100\n" +
		strings.Repeat("0 10 0\n", 8)))
	if err != nil {
		b.Fatal(err)
	}
	rk := NewRK4(m)
	rk.SetParticle(6, 9.666)
	x := NewState(r3.Vec{}, r3.Vec{Z: 1})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = rk.Step(x, 0.01)
	}
}
