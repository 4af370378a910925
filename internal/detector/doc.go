// Package detector describes the tracking detectors of a fragment setup and
// the hits they record in one event.
//
// A [Setup] owns every [Detector] once and exposes two ordered views, one
// per spectrometer [Side]. Detectors shared by both sides (target, the
// fibres in front of the magnet, the time-of-flight wall) are the same
// object in both views, so a hit consumed by a track on one side is also
// consumed for the other.
package detector
