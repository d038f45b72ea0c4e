// SPDX-License-Identifier: EPL-2.0

// Package window generates the amplitude envelopes used to fade grains in
// and out.
//
// Shapes are looked up by name in a case-insensitive registry:
//
//	w, ok := window.MakeWindow("hanning", 882, window.DefaultBeta)
//
// The built-in names are TRAPEZOID, RECTANGULAR, HANN, HANNING, WELCH,
// PARZEN, BARTLETT, HAMMING, BLACKMAN2, BLACKMAN3, BLACKMAN4, EXPONENTIAL,
// KAISER, CAUCHY, POISSON, RIEMANN, GAUSSIAN and TUKEY. New shapes can be
// added with Register. An unknown name never fails: a linear ramp is used
// and the boolean result is false so the caller can warn.
//
// # Ramps
//
// A grain ramp of n samples is the rising half of a 2n point window.
// MakeRamps fills caller storage; NewRamps allocates an immutable Ramps
// value meant to be published through an atomic pointer:
//
//	r, _ := window.NewRamps("KAISER", 441, window.DefaultBeta)
//	// r.Down[i] == r.Up[len(r.Up)-1-i] for every i
package window
