package metrics

import (
	"go-hep.org/x/hep/hbook"
)

// Metric is a named scalar summary of a run.
type Metric interface {
	Name() string
	Value() float64
	Reset()
}

// Histogram is a fixed-binning 1D histogram.
type Histogram struct {
	name   string
	title  string
	xlabel string
	nbins  int
	lo, hi float64
	h      *hbook.H1D
}

func NewHistogram(name, title, xlabel string, nbins int, lo, hi float64) *Histogram {
	h := &Histogram{name: name, title: title, xlabel: xlabel, nbins: nbins, lo: lo, hi: hi}
	h.Reset()
	return h
}

func (h *Histogram) Name() string { return h.name }

func (h *Histogram) Observe(v float64) {
	h.h.Fill(v, 1)
}

// Value is the mean of the filled values.
func (h *Histogram) Value() float64 {
	if h.h.Entries() == 0 {
		return 0
	}
	return h.h.XMean()
}

func (h *Histogram) Entries() int64 { return h.h.Entries() }

func (h *Histogram) Reset() {
	h.h = hbook.NewH1D(h.nbins, h.lo, h.hi)
	h.h.Annotation()["name"] = h.name
	h.h.Annotation()["title"] = h.title
}

// Bin is one histogram bin.
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count float64 `json:"count"`
}

// HistogramData is the serializable form of a histogram.
type HistogramData struct {
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	XLabel  string  `json:"xlabel"`
	Entries int64   `json:"entries"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
	Bins    []Bin   `json:"bins"`
}

func (h *Histogram) Data() HistogramData {
	d := HistogramData{
		Name:    h.name,
		Title:   h.title,
		XLabel:  h.xlabel,
		Entries: h.h.Entries(),
		Bins:    make([]Bin, 0, h.nbins),
	}
	if d.Entries > 0 {
		d.Mean = h.h.XMean()
		if d.Entries > 1 {
			d.StdDev = h.h.XStdDev()
		}
	}
	for _, b := range h.h.Binning.Bins {
		d.Bins = append(d.Bins, Bin{Low: b.XMin(), High: b.XMax(), Count: b.SumW()})
	}
	return d
}

// Counts returns the bin contents.
func (d HistogramData) Counts() []float64 {
	out := make([]float64, len(d.Bins))
	for i, b := range d.Bins {
		out[i] = b.Count
	}
	return out
}
