// Package tracker finds fragment tracks in an event.
//
// For every charge hypothesis, heaviest first, the [Tracker] takes each
// free time-of-flight hit whose charge matches, builds one candidate per
// combination of hits in the tracking detectors of that hit's side, fits
// all of them and keeps the one with the smallest chi-square. The hits of
// an accepted track are consumed and cannot be used by a later hypothesis
// in the same event.
//
//	t, err := tracker.New(setup, prop, fit, tracker.DefaultOptions())
//	res, err := t.ProcessEvent(ctx, ev)
//	for _, tr := range res.Tracks { ... }
//
// Events with too many hit combinations on one side skip the hypothesis
// instead of spending unbounded time in the fit.
package tracker
