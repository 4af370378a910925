// Package viz provides the terminal monitor of a tracking run.
//
// The monitor is a Bubble Tea program fed by the run loop. It draws the
// top view of the setup with the tracks of the last event on a Braille
// canvas, next to the run counters and asciigraph plots of the track
// chi-square and momentum.
//
// # Key Bindings
//
//	Space - Pause/Resume the run
//	H     - Cycle the histogram shown
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
