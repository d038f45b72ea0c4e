// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// SemitoneToRate converts a transposition in semitones into a playback rate.
// With the usual octaveSize of 2 and 12 divisions, 12 semitones double the
// rate.
func SemitoneToRate(st, octaveSize, octaveDivisions float64) float64 {
	return math.Pow(octaveSize, st/octaveDivisions)
}

// MsToSamples returns the nearest whole number of samples covering ms at the
// given rate. Negative durations give 0.
func MsToSamples(rate, ms float64) int {
	n := math.Round(rate * ms * 0.001)
	if n < 0 || math.IsNaN(n) {
		return 0
	}

	return int(n)
}

// SamplesToMs converts a sample count back to milliseconds.
func SamplesToMs(rate float64, samples int) float64 {
	if rate <= 0 {
		return 0
	}

	return 1000 * float64(samples) / rate
}
