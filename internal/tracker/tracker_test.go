package tracker

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/fragtrack/internal/config"
	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/events"
)

func benchConfig() *config.Config {
	cfg, err := config.GetPreset("bench")
	Expect(err).NotTo(HaveOccurred())
	return cfg
}

var _ = Describe("Tracker", func() {
	ctx := context.Background()

	Context("with one fragment and one hit per detector", func() {
		var (
			f  *fixture
			ev *events.Event
		)

		BeforeEach(func() {
			var err error
			f, err = newFixture(benchConfig(), []Hypothesis{carbon12}, []Hypothesis{carbon12})
			Expect(err).NotTo(HaveOccurred())
			ev, err = f.gen.Generate(1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("accepts the only candidate and consumes its hits", func() {
			res, err := f.tracker.ProcessEvent(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Tracks).To(HaveLen(1))
			Expect(res.Stats[0].Candidates).To(Equal(1))

			tr := res.Tracks[0]
			Expect(tr.Charge).To(Equal(6))
			Expect(tr.Side).To(Equal(detector.Left))
			Expect(tr.Chi2).To(BeNumerically("<", 1e-3))
			Expect(tr.Status).To(BeNumerically("<", 10))

			for _, name := range []string{"fi23a", "fi23b", "fi30", "fi32", "tofd"} {
				Expect(tr.Hits).To(HaveKeyWithValue(name, 0))
				d, err := f.setup.Get(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(d.Consumed(0)).To(BeTrue(), name)
			}
		})

		It("clears consumption between events", func() {
			first, err := f.tracker.ProcessEvent(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Tracks).To(HaveLen(1))

			second, err := f.tracker.ProcessEvent(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Tracks).To(HaveLen(1))
			Expect(f.tracker.Totals().Events).To(Equal(2))
			Expect(f.tracker.Totals().Complete).To(Equal(2))
		})

		It("ignores time-of-flight hits of another charge", func() {
			f.tracker.opts.Hypotheses = []Hypothesis{helium4}
			res, err := f.tracker.ProcessEvent(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Tracks).To(BeEmpty())
			Expect(res.Stats[0].Combinations).To(BeZero())
		})

		It("stops on a cancelled context", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := f.tracker.ProcessEvent(cctx, ev)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	It("lets an earlier hypothesis take the shared hits", func() {
		f, err := newFixture(benchConfig(), []Hypothesis{carbon12, carbon11}, []Hypothesis{carbon12})
		Expect(err).NotTo(HaveOccurred())
		ev, err := f.gen.Generate(2)
		Expect(err).NotTo(HaveOccurred())

		res, err := f.tracker.ProcessEvent(ctx, ev)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Tracks).To(HaveLen(1))
		Expect(res.Tracks[0].Hypothesis).To(Equal("12C"))
		Expect(res.Stats[1].Candidates).To(BeZero())
		Expect(res.Stats[1].Accepted).To(BeFalse())
	})

	It("skips a hypothesis with too many combinations", func() {
		f, err := newFixture(benchConfig(), []Hypothesis{carbon12}, nil)
		Expect(err).NotTo(HaveOccurred())

		many := func(x float64) []detector.Hit {
			hits := make([]detector.Hit, 25)
			for i := range hits {
				hits[i] = detector.Hit{X: x + float64(i)*0.1}
			}
			return hits
		}
		ev := &events.Event{Number: 3, Hits: map[string][]detector.Hit{
			"fi23a": many(-1),
			"fi23b": many(-1),
			"fi30":  many(-5),
			"tofd":  {{X: 50, Eloss: detector.DefaultCalibration().Eloss(6)}},
		}}

		res, err := f.tracker.ProcessEvent(ctx, ev)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Tracks).To(BeEmpty())
		Expect(res.Stats[0].Overflow).To(BeTrue())
		Expect(res.Stats[0].Candidates).To(BeZero())
		Expect(f.tracker.Totals().Overflows).To(Equal(1))
	})

	It("picks the true hits among noise", func() {
		f, err := newFixture(benchConfig(), []Hypothesis{carbon12}, []Hypothesis{carbon12})
		Expect(err).NotTo(HaveOccurred())
		f.gen.Smear = true
		f.gen.Spread = 0.01
		f.gen.Noise = 1

		ev, err := f.gen.Generate(4)
		Expect(err).NotTo(HaveOccurred())
		res, err := f.tracker.ProcessEvent(ctx, ev)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Tracks).To(HaveLen(1))
		for _, name := range []string{"fi23a", "fi23b", "fi30", "fi32"} {
			Expect(res.Tracks[0].Hits).To(HaveKeyWithValue(name, 0), name)
		}
	})

	Context("in the magnetic field", func() {
		It("reconstructs carbon and helium from the same event", func() {
			f, err := newFixture(config.DefaultConfig(),
				[]Hypothesis{carbon12, helium4}, []Hypothesis{carbon12, helium4})
			Expect(err).NotTo(HaveOccurred())
			f.gen.Spread = 0.01

			ev, err := f.gen.Generate(5)
			Expect(err).NotTo(HaveOccurred())
			res, err := f.tracker.ProcessEvent(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Tracks).To(HaveLen(2))

			Expect(res.Tracks[0].Charge).To(Equal(6))
			Expect(res.Tracks[0].P()).To(BeNumerically("~", 9.666, 0.2))
			Expect(res.Tracks[1].Charge).To(Equal(2))
			Expect(res.Tracks[1].P()).To(BeNumerically("~", 3.222, 0.07))

			s := f.tracker.Finish()
			Expect(s.Tracks).To(Equal(2))
			Expect(s.MedianChi2).To(BeNumerically(">=", 0))
			Expect(s.Chi2Sum).To(BeNumerically("~", res.Tracks[0].Chi2+res.Tracks[1].Chi2, 1e-9))
		})

		It("fits backwards from the time-of-flight wall", func() {
			cfg := config.DefaultConfig()
			cfg.Search.Fit = "backward"
			f, err := newFixture(cfg, []Hypothesis{carbon12}, []Hypothesis{carbon12})
			Expect(err).NotTo(HaveOccurred())

			ev, err := f.gen.Generate(6)
			Expect(err).NotTo(HaveOccurred())
			res, err := f.tracker.ProcessEvent(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Tracks).To(HaveLen(1))

			tr := res.Tracks[0]
			Expect(tr.Position.Z).To(BeNumerically("~", 0, 1e-6))
			Expect(tr.Momentum.Z).To(BeNumerically(">", 0))
			Expect(tr.P()).To(BeNumerically("~", 9.666, 0.3))
		})
	})

	Context("when no candidate qualifies", func() {
		consumedAny := func(f *fixture) bool {
			for _, d := range f.setup.Detectors() {
				for i := range d.Hits {
					if d.Consumed(i) {
						return true
					}
				}
			}
			return false
		}

		It("rejects a best candidate above the chi-square cut", func() {
			f, err := newFixture(benchConfig(), []Hypothesis{carbon12}, []Hypothesis{carbon12})
			Expect(err).NotTo(HaveOccurred())
			f.gen.Smear = true
			f.tracker.opts.Chi2Cut = 1e-6

			ev, err := f.gen.Generate(9)
			Expect(err).NotTo(HaveOccurred())
			res, err := f.tracker.ProcessEvent(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Tracks).To(BeEmpty())
			Expect(res.Stats[0].Candidates).To(BeNumerically(">=", 1))
			Expect(res.Stats[0].Accepted).To(BeFalse())
			Expect(res.Stats[0].BestChi2).To(BeNumerically(">", 1e-6))
			Expect(consumedAny(f)).To(BeFalse())
		})

		It("drops candidates whose fit reaches the status threshold", func() {
			f, err := newFixture(benchConfig(), []Hypothesis{carbon12}, []Hypothesis{carbon12})
			Expect(err).NotTo(HaveOccurred())
			f.tracker.opts.StatusThreshold = 0

			ev, err := f.gen.Generate(10)
			Expect(err).NotTo(HaveOccurred())
			res, err := f.tracker.ProcessEvent(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Tracks).To(BeEmpty())
			Expect(res.Stats[0].Failed).To(BeNumerically(">", 0))
			Expect(res.Stats[0].Candidates).To(BeZero())
			Expect(consumedAny(f)).To(BeFalse())
		})

		It("counts fits that stop the fragment in the target as failed", func() {
			src, err := newFixture(benchConfig(), []Hypothesis{carbon12}, []Hypothesis{carbon12})
			Expect(err).NotTo(HaveOccurred())
			ev, err := src.gen.Generate(11)
			Expect(err).NotTo(HaveOccurred())

			cfg := benchConfig()
			cfg.Search.EnergyLoss = true
			cfg.Detectors[0].Thickness = 1e4
			f, err := newFixture(cfg, []Hypothesis{carbon12}, nil)
			Expect(err).NotTo(HaveOccurred())

			res, err := f.tracker.ProcessEvent(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Tracks).To(BeEmpty())
			Expect(res.Stats[0].Failed).To(BeNumerically(">", 0))
			Expect(res.Stats[0].Candidates).To(BeZero())
			Expect(f.tracker.Totals().Failed).To(Equal(res.Stats[0].Failed))
		})

		It("discards candidates with a non-finite momentum", func() {
			f, err := newFixture(benchConfig(), []Hypothesis{carbon12}, []Hypothesis{carbon12})
			Expect(err).NotTo(HaveOccurred())
			f.tracker.fit = nanFitter{f.fit}

			ev, err := f.gen.Generate(12)
			Expect(err).NotTo(HaveOccurred())
			res, err := f.tracker.ProcessEvent(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Tracks).To(BeEmpty())
			Expect(res.Stats[0].NonFinite).To(BeNumerically(">", 0))
			Expect(res.Stats[0].Failed).To(BeZero())
			Expect(res.Stats[0].Candidates).To(BeZero())
			Expect(f.tracker.Totals().NonFinite).To(Equal(res.Stats[0].NonFinite))
			Expect(consumedAny(f)).To(BeFalse())
		})
	})

	It("reports diagnostics to observers", func() {
		rec := &recordingObserver{}
		f, err := newFixture(benchConfig(), []Hypothesis{carbon12}, []Hypothesis{carbon12}, WithObserver(rec))
		Expect(err).NotTo(HaveOccurred())
		ev, err := f.gen.Generate(8)
		Expect(err).NotTo(HaveOccurred())

		_, err = f.tracker.ProcessEvent(ctx, ev)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.events).To(Equal(1))
		Expect(rec.candidates).To(Equal([]int{1}))
		Expect(rec.tracks).To(HaveLen(1))
		Expect(rec.samples).To(HaveLen(6))
		for _, s := range rec.samples {
			if s.HasResidual {
				Expect(s.Residual).To(BeNumerically("~", 0, 1e-3))
			}
		}
	})
})

type recordingObserver struct {
	events     int
	candidates []int
	tracks     []Track
	samples    []DetectorSample
}

func (r *recordingObserver) ObserveEvent(int64, map[string]int) { r.events++ }
func (r *recordingObserver) ObserveCandidates(_ Hypothesis, n int) {
	r.candidates = append(r.candidates, n)
}
func (r *recordingObserver) ObserveTrack(t Track)             { r.tracks = append(r.tracks, t) }
func (r *recordingObserver) ObserveDetector(s DetectorSample) { r.samples = append(r.samples, s) }
