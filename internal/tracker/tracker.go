package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/events"
	"github.com/san-kum/fragtrack/internal/fitter"
	"github.com/san-kum/fragtrack/internal/particle"
	"github.com/san-kum/fragtrack/internal/propagator"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

type Options struct {
	Hypotheses      []Hypothesis
	Ceiling         int
	Chi2Cut         float64
	StatusThreshold int
	Calibration     detector.Calibration
}

func DefaultOptions() Options {
	return Options{
		Hypotheses:      DefaultHypotheses(),
		Ceiling:         DefaultCeiling,
		Chi2Cut:         DefaultChi2Cut,
		StatusThreshold: fitter.StatusThreshold,
		Calibration:     detector.DefaultCalibration(),
	}
}

// Fitter fits one candidate over the detectors of its side.
// *fitter.Fitter is the implementation used outside tests.
type Fitter interface {
	Fit(c *particle.Particle, dets []*detector.Detector) error
	Options() fitter.Options
}

type Tracker struct {
	setup *detector.Setup
	prop  *propagator.Propagator
	fit   Fitter
	opts  Options
	log   zerolog.Logger
	obs   []Observer
	pool  *particle.Pool
	sides []detector.Side // side of each pooled candidate

	totals Totals
	chi2   []float64
}

type Option func(*Tracker)

func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

func WithObserver(o Observer) Option {
	return func(t *Tracker) { t.obs = append(t.obs, o) }
}

func New(setup *detector.Setup, prop *propagator.Propagator, fit Fitter, opts Options, options ...Option) (*Tracker, error) {
	if len(opts.Hypotheses) == 0 {
		return nil, errors.New("tracker: no hypotheses")
	}
	if opts.Ceiling <= 0 {
		opts.Ceiling = DefaultCeiling
	}
	if opts.Chi2Cut <= 0 {
		opts.Chi2Cut = DefaultChi2Cut
	}
	if opts.StatusThreshold <= 0 {
		opts.StatusThreshold = fitter.StatusThreshold
	}
	t := &Tracker{
		setup: setup,
		prop:  prop,
		fit:   fit,
		opts:  opts,
		log:   zerolog.Nop(),
		pool:  particle.NewPool(64),
	}
	for _, o := range options {
		o(t)
	}
	return t, nil
}

func (t *Tracker) Setup() *detector.Setup { return t.setup }

// ProcessEvent loads the hits of ev, clearing all consumption, and runs
// every hypothesis in order.
func (t *Tracker) ProcessEvent(ctx context.Context, ev *events.Event) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.setup.Load(ev.Hits)
	mult := t.setup.Multiplicity()
	for _, o := range t.obs {
		o.ObserveEvent(ev.Number, mult)
	}

	res := &Result{Event: ev.Number}
	for _, h := range t.opts.Hypotheses {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		tr, st := t.processHypothesis(ev.Number, h)
		res.Stats = append(res.Stats, st)
		if tr != nil {
			res.Tracks = append(res.Tracks, *tr)
		}
	}

	t.totals.Events++
	t.totals.Tracks += len(res.Tracks)
	if len(res.Tracks) == len(t.opts.Hypotheses) {
		t.totals.Complete++
	}
	for _, st := range res.Stats {
		t.totals.Candidates += st.Candidates
		t.totals.Failed += st.Failed
		t.totals.NonFinite += st.NonFinite
		if st.Overflow {
			t.totals.Overflows++
		}
	}
	for _, tr := range res.Tracks {
		t.totals.Chi2Sum += tr.Chi2
		t.chi2 = append(t.chi2, tr.Chi2)
	}

	t.log.Debug().
		Int64("event", ev.Number).
		Int("tracks", len(res.Tracks)).
		Msg("event processed")
	return res, nil
}

func (t *Tracker) processHypothesis(event int64, h Hypothesis) (*Track, HypothesisStats) {
	defer t.pool.Release()
	t.sides = t.sides[:0]
	st := HypothesisStats{Hypothesis: h.Name}

	if err := t.generate(h, &st); err != nil {
		st.Overflow = true
		t.log.Debug().Err(err).Int64("event", event).Str("hypothesis", h.Name).Msg("hypothesis skipped")
		return nil, st
	}
	for _, o := range t.obs {
		o.ObserveCandidates(h, st.Candidates)
	}

	best := selectBest(t.pool)
	if best < 0 {
		return nil, st
	}
	st.BestChi2 = t.pool.At(best).Chi2
	if st.BestChi2 > t.opts.Chi2Cut {
		t.log.Debug().Float64("chi2", st.BestChi2).Str("hypothesis", h.Name).Msg("best candidate rejected")
		return nil, st
	}

	tr := t.accept(event, h, best)
	st.Accepted = true
	return &tr, st
}

// generate fills the candidate pool for one hypothesis.
func (t *Tracker) generate(h Hypothesis, st *HypothesisStats) error {
	for _, tof := range t.tofWalls() {
		for i, hit := range tof.Hits {
			if tof.Consumed(i) || t.opts.Calibration.Charge(hit.Eloss) != h.Charge {
				continue
			}
			side, ok := detector.SideOf(hit.X)
			if !ok || t.setup.TOF(side) != tof {
				continue
			}

			tracking := t.setup.Tracking(side)
			counts := make([]int, len(tracking))
			for k, d := range tracking {
				counts[k] = len(d.Hits)
			}
			if n := Combinations(counts, t.opts.Ceiling); n > t.opts.Ceiling {
				return fmt.Errorf("%w: %d on %s side", ErrCombinatoricsOverflow, n, side)
			}

			Product(counts, func(refs []detector.HitRef) bool {
				st.Combinations++
				for k, ref := range refs {
					if j, ok := ref.Index(); ok && tracking[k].Consumed(j) {
						return true
					}
				}
				t.candidate(h, side, refs, i, st)
				return true
			})
		}
	}
	return nil
}

func (t *Tracker) candidate(h Hypothesis, side detector.Side, refs []detector.HitRef, tofHit int, st *HypothesisStats) {
	c := t.pool.Get(h.Charge, h.Mass, h.Beta)

	target := t.setup.Target(side)
	start := target.Plane.Origin
	if len(target.Hits) > 0 {
		start = target.Position(0)
		c.SetHit(target.Name, detector.At(0))
	}
	c.SetStart(start, r3.Vec{Z: h.Momentum})
	c.StartBeta = h.Beta
	c.Reset()

	for k, d := range t.setup.Tracking(side) {
		c.SetHit(d.Name, refs[k])
	}
	c.SetHit(t.setup.TOF(side).Name, detector.At(tofHit))

	err := t.fit.Fit(c, t.setup.Side(side))
	if err == nil {
		err = c.CheckFinite()
	}
	switch {
	case errors.Is(err, particle.ErrNonFinite):
		st.NonFinite++
		t.pool.Drop()
		return
	case err != nil:
		st.Failed++
		t.pool.Drop()
		t.log.Trace().Err(err).Str("hypothesis", h.Name).Msg("fit failed")
		return
	case c.Status >= t.opts.StatusThreshold:
		st.Failed++
		t.pool.Drop()
		return
	}
	t.sides = append(t.sides, side)
	st.Candidates++
}

func (t *Tracker) tofWalls() []*detector.Detector {
	l, r := t.setup.TOF(detector.Left), t.setup.TOF(detector.Right)
	if l == r {
		return []*detector.Detector{l}
	}
	return []*detector.Detector{l, r}
}

// Totals accumulates over all events of a run.
type Totals struct {
	Events     int
	Tracks     int
	Complete   int // events with a track for every hypothesis
	Candidates int
	Failed     int
	NonFinite  int
	Overflows  int
	Chi2Sum    float64
}

type Summary struct {
	Totals
	MeanChi2   float64
	MedianChi2 float64
	Chi2Q90    float64
}

func (t *Tracker) Totals() Totals { return t.totals }

// Finish returns the run summary. The tracker can keep processing events
// afterwards.
func (t *Tracker) Finish() Summary { return t.Summary() }

// Summary returns the run totals with chi-square statistics of the
// accepted tracks.
func (t *Tracker) Summary() Summary {
	s := Summary{Totals: t.totals}
	if len(t.chi2) == 0 {
		return s
	}
	sorted := append([]float64(nil), t.chi2...)
	sort.Float64s(sorted)
	s.MeanChi2 = stat.Mean(sorted, nil)
	s.MedianChi2 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.Chi2Q90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return s
}
