// SPDX-License-Identifier: EPL-2.0

package granular

import "github.com/ik5/audgrain/utils"

// Grain is one voice. Grains live in a fixed array inside the Granulator and
// are re-initialised forever; they are never allocated or freed.
//
// Positions are fractional indices into the sample source. icurrent counts
// output samples, so the envelope timing does not depend on the playback
// rate.
type Grain struct {
	length        int
	start, end    float64
	endRampUp     int
	startRampDown int
	current       float64
	icurrent      int
	rampi         int
	inc           float64
	backwards     bool
	audible       bool

	phase    Phase
	activity Activity
	channel  int

	delayMode    delayMode
	delayFixed   int
	delay        int
	delayCounter int
}

// mixContext carries what a grain reads during one tick.
type mixContext struct {
	samples  []float32
	circular bool
	up, down []float32
	amps     []float32
}

// Phase returns the grain's lifecycle phase.
func (gg *Grain) Phase() Phase { return gg.phase }

// Activity reports whether the voice slot is in use.
func (gg *Grain) Activity() Activity { return gg.activity }

// Channel is the output channel the grain mixes into.
func (gg *Grain) Channel() int { return gg.channel }

// Length is the grain's duration in output samples.
func (gg *Grain) Length() int { return gg.length }

// Bounds returns the first and last read positions.
func (gg *Grain) Bounds() (start, end float64) { return gg.start, gg.end }

// Backwards reports whether the grain reads towards lower indices.
func (gg *Grain) Backwards() bool { return gg.backwards }

// Exhausted reports whether the grain has played its full length.
func (gg *Grain) Exhausted() bool {
	return gg.icurrent >= gg.length
}

// settle derives the phase from the counters. It is the only place a
// grain's phase changes.
func (gg *Grain) settle() {
	switch {
	case gg.phase == PhaseOff:
	case gg.delayCounter < gg.delay:
		gg.phase = PhaseStarting
	case gg.icurrent >= gg.length:
		gg.phase = PhaseInactive
	case !gg.audible:
		gg.phase = PhaseSkip
	case gg.icurrent >= gg.startRampDown:
		gg.phase = PhaseStopping
	case gg.icurrent >= gg.endRampUp:
		gg.phase = PhaseActive
	default:
		gg.phase = PhaseRampUp
	}
}

// RampValue returns the envelope for the next output sample.
func (gg *Grain) RampValue(up, down []float32) float32 {
	switch gg.phase {
	case PhaseRampUp:
		if gg.icurrent < len(up) {
			return up[gg.icurrent]
		}
		return 1
	case PhaseActive:
		return 1
	case PhaseStopping:
		if gg.rampi < len(down) {
			return down[gg.rampi]
		}
	}
	return 0
}

func (gg *Grain) advance() {
	if gg.phase == PhaseStopping {
		gg.rampi++
	}
	gg.current += gg.inc
	gg.icurrent++
	gg.settle()
}

// MixIn adds the grain's next len(where) samples into where. Samples after
// the grain is exhausted are left untouched; the owner re-initialises it
// before the next call.
func (gg *Grain) MixIn(where []float32, ctx *mixContext) {
	for i := range where {
		if gg.phase == PhaseStarting {
			gg.delayCounter++
			gg.settle()
			continue
		}

		if gg.Exhausted() {
			return
		}

		if gg.phase.Audible() {
			s := utils.Interpolate(gg.current, ctx.samples, gg.backwards, ctx.circular)
			where[i] += s * gg.RampValue(ctx.up, ctx.down) * ctx.amps[i]
		}

		gg.advance()
	}
}

// forceStop ends the grain early. A sounding grain jumps into its ramp-down
// at the point whose value matches where it is now, so the envelope never
// steps. Anything else is exhausted on the spot.
func (gg *Grain) forceStop(rampLen int) {
	switch gg.phase {
	case PhaseRampUp:
		j := max(rampLen-1-gg.icurrent, 0)
		gg.rampi = j
		gg.startRampDown = gg.icurrent
		gg.endRampUp = min(gg.endRampUp, gg.icurrent)
		gg.length = gg.icurrent + rampLen - j
	case PhaseActive:
		gg.rampi = 0
		gg.startRampDown = gg.icurrent
		gg.length = gg.icurrent + rampLen
	case PhaseStopping:
		return
	default:
		gg.delay = 0
		gg.delayCounter = 0
		gg.icurrent = gg.length
	}
	gg.settle()
}

// switchOff parks a dormant voice.
func (gg *Grain) switchOff() {
	gg.phase = PhaseOff
	gg.length = 0
	gg.icurrent = 0
	gg.delay = 0
	gg.delayCounter = 0
	gg.audible = false
}
