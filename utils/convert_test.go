// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestSemitoneToRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		st   float64
		want float64
	}{
		{name: "unison", st: 0, want: 1},
		{name: "octave up", st: 12, want: 2},
		{name: "octave down", st: -12, want: 0.5},
		{name: "fifth", st: 7, want: 1.4983070768766815},
		{name: "two octaves", st: 24, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SemitoneToRate(tt.st, 2, 12)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SemitoneToRate(%v) = %v, want %v", tt.st, got, tt.want)
			}
		})
	}
}

func TestSemitoneToRateReciprocal(t *testing.T) {
	t.Parallel()

	for st := -48.0; st <= 48; st += 0.25 {
		up := SemitoneToRate(st, 2, 12)
		down := SemitoneToRate(-st, 2, 12)

		if math.Abs(up*down-1) > 1e-9 {
			t.Errorf("st=%v: rate %v * inverse %v != 1", st, up, down)
		}
	}
}

func TestSemitoneToRateMonotonic(t *testing.T) {
	t.Parallel()

	prev := SemitoneToRate(-24, 2, 12)
	for st := -23.9; st <= 24; st += 0.1 {
		curr := SemitoneToRate(st, 2, 12)
		if curr <= prev {
			t.Fatalf("not monotonic at %v: %v <= %v", st, curr, prev)
		}
		prev = curr
	}
}

func TestMsToSamples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rate float64
		ms   float64
		want int
	}{
		{name: "grain at 44.1kHz", rate: 44100, ms: 50, want: 2205},
		{name: "ramp at 44.1kHz", rate: 44100, ms: 10, want: 441},
		{name: "rounds down", rate: 44100, ms: 0.5, want: 22},
		{name: "sub-sample rounds to zero", rate: 48000, ms: 0.01, want: 0},
		{name: "one second", rate: 8000, ms: 1000, want: 8000},
		{name: "negative is zero", rate: 44100, ms: -5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := MsToSamples(tt.rate, tt.ms); got != tt.want {
				t.Errorf("MsToSamples(%v, %v) = %d, want %d", tt.rate, tt.ms, got, tt.want)
			}
		})
	}
}

func TestSamplesToMs(t *testing.T) {
	t.Parallel()

	if got := SamplesToMs(44100, 2205); math.Abs(got-50) > 1e-9 {
		t.Errorf("SamplesToMs(44100, 2205) = %v, want 50", got)
	}

	if got := SamplesToMs(0, 100); got != 0 {
		t.Errorf("SamplesToMs with zero rate = %v, want 0", got)
	}

	for _, ms := range []float64{1, 10, 50, 250, 1000} {
		back := SamplesToMs(48000, MsToSamples(48000, ms))
		if math.Abs(back-ms) > 1000.0/48000 {
			t.Errorf("round trip of %vms gave %vms", ms, back)
		}
	}
}
