package detector

import "fmt"

// Setup is the detector array with one ordered view per side. The views
// run from the target to the time-of-flight wall.
type Setup struct {
	detectors []*Detector
	byName    map[string]*Detector
	sides     [2][]*Detector
}

func NewSetup(dets []*Detector, left, right []string) (*Setup, error) {
	s := &Setup{
		detectors: dets,
		byName:    make(map[string]*Detector, len(dets)),
	}
	for _, d := range dets {
		if _, dup := s.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate detector %q", d.Name)
		}
		s.byName[d.Name] = d
	}
	for i, names := range [][]string{left, right} {
		for _, n := range names {
			d, ok := s.byName[n]
			if !ok {
				return nil, fmt.Errorf("%s side: %w: %q", Side(i), ErrUnknownDetector, n)
			}
			s.sides[i] = append(s.sides[i], d)
		}
		if err := checkOrder(Side(i), s.sides[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func checkOrder(side Side, dets []*Detector) error {
	if len(dets) == 0 {
		return fmt.Errorf("%s side has no detectors", side)
	}
	if dets[0].Section != Target {
		return fmt.Errorf("%s side must start with a target detector", side)
	}
	if dets[len(dets)-1].Section != TimeOfFlight {
		return fmt.Errorf("%s side must end with a time-of-flight detector", side)
	}
	for i := 1; i < len(dets); i++ {
		if dets[i].Section < dets[i-1].Section {
			return fmt.Errorf("%s side: %s (%s) after %s (%s)", side,
				dets[i].Name, dets[i].Section, dets[i-1].Name, dets[i-1].Section)
		}
	}
	return nil
}

func (s *Setup) Get(name string) (*Detector, error) {
	d, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, name)
	}
	return d, nil
}

func (s *Setup) Detectors() []*Detector { return s.detectors }

func (s *Setup) Side(side Side) []*Detector { return s.sides[side] }

func (s *Setup) Target(side Side) *Detector { return s.sides[side][0] }

func (s *Setup) TOF(side Side) *Detector {
	d := s.sides[side]
	return d[len(d)-1]
}

// Tracking returns the detectors of a side between target and
// time-of-flight wall.
func (s *Setup) Tracking(side Side) []*Detector {
	d := s.sides[side]
	return d[1 : len(d)-1]
}

// Load distributes the hits of an event. Detectors without an entry get no
// hits. Every consumed flag is cleared.
func (s *Setup) Load(hits map[string][]Hit) {
	for _, d := range s.detectors {
		d.Load(hits[d.Name])
	}
}

// Multiplicity returns the hit count per detector in setup order.
func (s *Setup) Multiplicity() map[string]int {
	m := make(map[string]int, len(s.detectors))
	for _, d := range s.detectors {
		m[d.Name] = len(d.Hits)
	}
	return m
}
