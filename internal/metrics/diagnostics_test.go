package metrics

import (
	"testing"

	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestHistogram(t *testing.T) {
	h := NewHistogram("x", "x", "x", 10, 0, 10)
	for _, v := range []float64{1.5, 2.5, 2.7, 9.9} {
		h.Observe(v)
	}
	assert.Equal(t, int64(4), h.Entries())
	assert.InDelta(t, (1.5+2.5+2.7+9.9)/4, h.Value(), 1e-12)

	d := h.Data()
	require.Len(t, d.Bins, 10)
	assert.Equal(t, 2.0, d.Bins[2].Count)
	assert.Equal(t, 2.0, d.Bins[2].Low)
	assert.Equal(t, 10.0, d.Bins[9].High)

	h.Reset()
	assert.Zero(t, h.Entries())
	assert.Zero(t, h.Value())
}

func TestDiagnosticsObserver(t *testing.T) {
	var obs tracker.Observer = NewDiagnostics()
	d := obs.(*Diagnostics)

	d.ObserveEvent(1, map[string]int{"fi23a": 2, "tofd": 1})
	d.ObserveCandidates(tracker.Hypothesis{Name: "12C"}, 4)
	d.ObserveTrack(tracker.Track{Hypothesis: "12C", Side: detector.Left, Chi2: 3, Momentum: r3.Vec{Z: 9.6}})
	d.ObserveDetector(tracker.DetectorSample{Detector: "fi30", Eloss: 12, HasResidual: true, Residual: 0.01, Pull: 0.3})
	d.ObserveDetector(tracker.DetectorSample{Detector: "target", Eloss: 40})
	d.CountEvent(1)

	for _, n := range []string{"mult_fi23a", "ncand_12C", "chi2", "p_left", "p_12C", "eloss_fi30", "dx_fi30", "pull_fi30", "eloss_target"} {
		_, ok := d.Get(n)
		assert.True(t, ok, n)
	}
	_, ok := d.Get("dx_target")
	assert.False(t, ok)

	m := d.Metrics()
	assert.InDelta(t, 9.6, m["p"], 1e-12)
	assert.Equal(t, 1.0, m["efficiency"])
	assert.Equal(t, "mult_fi23a", d.Names()[0])
	assert.Len(t, d.Snapshot(), len(d.Names()))

	d.Reset()
	assert.Zero(t, d.Efficiency())
}
