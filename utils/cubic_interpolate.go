// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// CubicInterpolate performs Catmull-Rom interpolation.
// x is the fractional position between y1 and y2 (0 <= x <= 1)
// y0, y1, y2, y3 are four consecutive samples
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return a0*x*x*x + a1*x*x + a2*x + a3
}

// Interpolate reads samples at the fractional position index using four
// neighbouring points.
//
// When circular is set every neighbour index wraps modulo len(samples), so a
// grain reading a live ring buffer may run past either end. Otherwise the
// neighbours are clamped to the first and last sample.
//
// backwards mirrors the neighbour order: the value is taken between
// ceil(index) and the sample below it, so a grain playing in reverse
// interpolates towards decreasing indices. At whole indices both directions
// return the stored sample exactly.
func Interpolate(index float64, samples []float32, backwards, circular bool) float32 {
	n := len(samples)
	if n == 0 {
		return 0
	}

	var (
		base int
		frac float64
		step = 1
	)

	if backwards {
		c := math.Ceil(index)
		base = int(c)
		frac = c - index
		step = -1
	} else {
		f := math.Floor(index)
		base = int(f)
		frac = index - f
	}

	at := func(i int) float32 {
		if circular {
			i %= n
			if i < 0 {
				i += n
			}
			return samples[i]
		}
		return samples[min(max(i, 0), n-1)]
	}

	return CubicInterpolate(
		at(base-step),
		at(base),
		at(base+step),
		at(base+2*step),
		float32(frac),
	)
}
