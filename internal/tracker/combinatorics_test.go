package tracker

import (
	"math"
	"testing"

	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/particle"
)

func TestCombinations(t *testing.T) {
	tests := []struct {
		counts []int
		want   int
	}{
		{[]int{1, 1, 1}, 1},
		{[]int{2, 0, 3}, 6},
		{[]int{0, 0}, 1},
		{[]int{25, 25, 25}, 15625},
	}
	for _, tt := range tests {
		if got := Combinations(tt.counts, 1<<30); got != tt.want {
			t.Errorf("Combinations(%v) = %d, want %d", tt.counts, got, tt.want)
		}
	}
	if got := Combinations([]int{25, 25, 25}, DefaultCeiling); got <= DefaultCeiling {
		t.Errorf("expected early count above ceiling, got %d", got)
	}
}

func TestProductOrder(t *testing.T) {
	var got [][2]string
	Product([]int{2, 0, 2}, func(refs []detector.HitRef) bool {
		if refs[1] != detector.Absent {
			t.Fatalf("empty detector must be absent, got %v", refs[1])
		}
		got = append(got, [2]string{refs[0].String(), refs[2].String()})
		return true
	})
	want := [][2]string{{"0", "0"}, {"0", "1"}, {"1", "0"}, {"1", "1"}}
	if len(got) != len(want) {
		t.Fatalf("got %d tuples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tuple %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestProductStops(t *testing.T) {
	n := 0
	Product([]int{3, 3}, func([]detector.HitRef) bool {
		n++
		return n < 4
	})
	if n != 4 {
		t.Errorf("enumeration should stop after 4 tuples, ran %d", n)
	}
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		chi2 []float64
		want int
	}{
		{[]float64{5.0, 1.2, 3.4}, 1},
		{[]float64{2, 2, 2}, 0},
		{[]float64{7}, 0},
		{nil, -1},
	}
	for _, tt := range tests {
		pool := particle.NewPool(4)
		for _, c := range tt.chi2 {
			pool.Get(6, 11.1749, 0.65).Chi2 = c
		}
		if got := selectBest(pool); got != tt.want {
			t.Errorf("selectBest(%v) = %d, want %d", tt.chi2, got, tt.want)
		}
	}
}

func BenchmarkProduct(b *testing.B) {
	counts := []int{10, 10, 10, 10}
	for i := 0; i < b.N; i++ {
		Product(counts, func([]detector.HitRef) bool { return true })
	}
}

func TestTofMass(t *testing.T) {
	m, p := 11.1749, 9.666
	beta := p / math.Sqrt(p*p+m*m)
	path := 900.0
	got, ok := tofMass(p, path, path/(beta*lightSpeed))
	if !ok || math.Abs(got-m) > 1e-9 {
		t.Errorf("tofMass = %v, %v; want %v", got, ok, m)
	}
	if _, ok := tofMass(p, path, path/(1.5*lightSpeed)); ok {
		t.Error("superluminal hit accepted")
	}
}
