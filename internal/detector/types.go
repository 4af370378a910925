package detector

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownDetector = errors.New("detector: unknown detector")
	ErrUnknownSection  = errors.New("detector: unknown section")
)

// Section is the position of a detector relative to the magnet.
type Section int

const (
	Target Section = iota
	BetweenMagnetRegions
	AfterMagnetRegion
	TimeOfFlight
)

var sectionNames = []string{"target", "between_magnet_regions", "after_magnet_region", "tof"}

func (s Section) String() string {
	if s < 0 || int(s) >= len(sectionNames) {
		return fmt.Sprintf("section(%d)", int(s))
	}
	return sectionNames[s]
}

func ParseSection(name string) (Section, error) {
	for i, n := range sectionNames {
		if strings.EqualFold(n, name) {
			return Section(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

func SectionNames() []string {
	return append([]string(nil), sectionNames...)
}

// Side selects one of the two spectrometer arms behind the magnet.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

func ParseSide(s string) (Side, error) {
	switch s {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Left, fmt.Errorf("unknown side %q", s)
}

// SideOf maps the local x of a time-of-flight hit to a side. ok is false
// for hits exactly on the beam axis.
func SideOf(x float64) (side Side, ok bool) {
	switch {
	case x > 0:
		return Left, true
	case x < 0:
		return Right, true
	}
	return Left, false
}

// Hit is one measured point in detector-local coordinates.
type Hit struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Eloss float64 `json:"eloss"`
	Time  float64 `json:"t,omitempty"`
}

// HitRef points at a hit of a detector, or at nothing.
type HitRef struct {
	index int
	ok    bool
}

// Absent is the reference used when a detector contributes no hit.
var Absent = HitRef{}

func At(i int) HitRef { return HitRef{index: i, ok: true} }

func (r HitRef) Index() (int, bool) { return r.index, r.ok }

func (r HitRef) String() string {
	if !r.ok {
		return "-"
	}
	return fmt.Sprint(r.index)
}
