package tracker

import (
	"errors"

	"github.com/san-kum/fragtrack/internal/detector"
	"gonum.org/v1/gonum/spatial/r3"
)

var ErrCombinatoricsOverflow = errors.New("tracker: too many hit combinations")

const (
	DefaultCeiling = 10000
	DefaultChi2Cut = 1e5
)

// Hypothesis is a fragment species to search for, with the seed kinematics
// used to start its fits.
type Hypothesis struct {
	Name     string
	Charge   int
	Mass     float64 // GeV/c^2
	Momentum float64 // GeV/c
	Beta     float64
}

func DefaultHypotheses() []Hypothesis {
	return []Hypothesis{
		{Name: "12C", Charge: 6, Mass: 11.1749, Momentum: 9.666, Beta: 0.65},
		{Name: "4He", Charge: 2, Mass: 3.7284, Momentum: 3.222, Beta: 0.65},
	}
}

// Track is an accepted candidate. Position and momentum are taken at the
// target.
type Track struct {
	Event      int64
	Hypothesis string
	Side       detector.Side
	Charge     int
	Mass       float64
	Position   r3.Vec // cm
	Momentum   r3.Vec // GeV/c
	Beta       float64
	Chi2       float64
	NDF        int
	Status     int
	Hits       map[string]int
}

func (t Track) P() float64 { return r3.Norm(t.Momentum) }

// Result is the outcome of one event.
type Result struct {
	Event  int64
	Tracks []Track
	Stats  []HypothesisStats
}

// HypothesisStats counts what happened to one hypothesis in one event.
type HypothesisStats struct {
	Hypothesis   string
	Combinations int
	Candidates   int
	Failed       int
	NonFinite    int
	Overflow     bool
	Accepted     bool
	BestChi2     float64
}

// DetectorSample is the state of an accepted track at one detector.
type DetectorSample struct {
	Event       int64
	Hypothesis  string
	Side        detector.Side
	Detector    string
	Eloss       float64 // expected deposit, MeV
	Measured    float64 // hit energy-loss observable, if a hit is assigned
	HasHit      bool
	Residual    float64 // local x, cm
	Pull        float64
	HasResidual bool
	Path        float64 // cm from the target
	Mass        float64 // GeV/c^2, from the time-of-flight hit
	HasMass     bool
}

// Observer receives the diagnostics of the tracker.
type Observer interface {
	ObserveEvent(event int64, multiplicity map[string]int)
	ObserveCandidates(h Hypothesis, n int)
	ObserveTrack(t Track)
	ObserveDetector(s DetectorSample)
}
