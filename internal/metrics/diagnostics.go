package metrics

import (
	"sort"

	"github.com/san-kum/fragtrack/internal/tracker"
)

// Diagnostics collects the tracker histograms. It implements
// tracker.Observer.
type Diagnostics struct {
	hists map[string]*Histogram
	order []string

	events     int
	withTracks int
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{hists: make(map[string]*Histogram)}
}

func (d *Diagnostics) hist(name, title, xlabel string, nbins int, lo, hi float64) *Histogram {
	h, ok := d.hists[name]
	if !ok {
		h = NewHistogram(name, title, xlabel, nbins, lo, hi)
		d.hists[name] = h
		d.order = append(d.order, name)
	}
	return h
}

func (d *Diagnostics) ObserveEvent(_ int64, multiplicity map[string]int) {
	d.events++
	names := make([]string, 0, len(multiplicity))
	for n := range multiplicity {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		d.hist("mult_"+n, "hit multiplicity "+n, "hits", 50, 0, 50).Observe(float64(multiplicity[n]))
	}
}

func (d *Diagnostics) ObserveCandidates(h tracker.Hypothesis, n int) {
	d.hist("ncand_"+h.Name, "candidates "+h.Name, "candidates", 100, 0, 100).Observe(float64(n))
}

func (d *Diagnostics) ObserveTrack(t tracker.Track) {
	d.hist("chi2", "track chi-square", "chi2", 100, 0, 100).Observe(t.Chi2)
	d.hist("p", "momentum", "p [GeV/c]", 200, 0, 20).Observe(t.P())
	d.hist("px", "momentum x", "px [GeV/c]", 200, -1, 1).Observe(t.Momentum.X)
	d.hist("py", "momentum y", "py [GeV/c]", 200, -1, 1).Observe(t.Momentum.Y)
	d.hist("pz", "momentum z", "pz [GeV/c]", 200, 0, 20).Observe(t.Momentum.Z)
	d.hist("p_"+t.Side.String(), "momentum "+t.Side.String(), "p [GeV/c]", 200, 0, 20).Observe(t.P())
	d.hist("p_"+t.Hypothesis, "momentum "+t.Hypothesis, "p [GeV/c]", 200, 0, 20).Observe(t.P())
}

func (d *Diagnostics) ObserveDetector(s tracker.DetectorSample) {
	d.hist("eloss_"+s.Detector, "energy loss "+s.Detector, "dE [MeV]", 200, 0, 200).Observe(s.Eloss)
	if s.HasHit {
		d.hist("measured_"+s.Detector, "measured energy loss "+s.Detector, "eloss", 200, 0, 200).Observe(s.Measured)
	}
	if s.HasMass {
		d.hist("mass_"+s.Hypothesis, "reconstructed mass "+s.Hypothesis, "m [GeV/c^2]", 200, 0, 20).Observe(s.Mass)
	}
	if s.HasResidual {
		d.hist("dx_"+s.Detector, "x residual "+s.Detector, "dx [cm]", 200, -2, 2).Observe(s.Residual)
		d.hist("pull_"+s.Detector, "x pull "+s.Detector, "pull", 200, -10, 10).Observe(s.Pull)
	}
}

// CountEvent is called by the run loop after each event.
func (d *Diagnostics) CountEvent(tracks int) {
	if tracks > 0 {
		d.withTracks++
	}
}

// Efficiency is the fraction of events with at least one track.
func (d *Diagnostics) Efficiency() float64 {
	if d.events == 0 {
		return 0
	}
	return float64(d.withTracks) / float64(d.events)
}

func (d *Diagnostics) Get(name string) (*Histogram, bool) {
	h, ok := d.hists[name]
	return h, ok
}

// Names lists the histograms in creation order.
func (d *Diagnostics) Names() []string {
	return append([]string(nil), d.order...)
}

func (d *Diagnostics) Snapshot() []HistogramData {
	out := make([]HistogramData, 0, len(d.order))
	for _, n := range d.order {
		out = append(out, d.hists[n].Data())
	}
	return out
}

// Metrics returns the scalar summaries: the mean of every histogram and
// the track efficiency.
func (d *Diagnostics) Metrics() map[string]float64 {
	m := make(map[string]float64, len(d.order)+1)
	for _, n := range d.order {
		m[n] = d.hists[n].Value()
	}
	m["efficiency"] = d.Efficiency()
	return m
}

func (d *Diagnostics) Reset() {
	for _, h := range d.hists {
		h.Reset()
	}
	d.events, d.withTracks = 0, 0
}
