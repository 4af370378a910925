// Package propagator moves track candidates between detector planes through
// a magnet with a bounded field volume.
//
// Outside the volume a track is a straight line and is moved with a single
// analytic plane intersection. Inside, the Lorentz equation is integrated
// with fixed-size RK4 steps until the target plane (or the exit of the
// volume) is reached.
//
// # Convergence
//
// The integration starts with a 0.01 cm step and continues with 1 cm steps.
// After each step the residual |d|/|d0| of the signed distance to the
// target plane is computed. The loop stops when the residual falls below
// 1e-3 or when it grows compared to the previous step, and fails with
// [ErrNonConvergent] after 1000 steps. A short refinement then lands the
// state exactly on the plane.
//
// # Backward Propagation
//
// [Propagator.PropagateBackward] expects a reversed candidate, with its
// momentum pointing upstream. The volume boundaries are swapped and the
// Lorentz term uses the opposite charge sign so the reversed track follows
// the same curve.
package propagator
