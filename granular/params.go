// SPDX-License-Identifier: EPL-2.0

package granular

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ik5/audgrain/utils"
	"github.com/ik5/audgrain/window"
)

// Setters never fail on bad values: they clamp to the nearest valid value
// (or ignore the call) and log a warning when warnings are on. Changes are
// picked up by the next tick or the next grain re-initialisation.

// SetWarnings turns warning output on or off. It never changes behaviour.
// Safe to call from any goroutine.
func (g *Granulator) SetWarnings(on bool) { g.warnings.Store(on) }

// SetTranspositionOffsetST shifts every grain by st semitones.
func (g *Granulator) SetTranspositionOffsetST(st float64) {
	g.offsetST = st
	g.offset = utils.SemitoneToRate(st, g.octaveSize, g.octaveDivisions)
}

// SetTranspositions sets the semitone values grains pick from at random.
// An empty list means no transposition.
func (g *Granulator) SetTranspositions(semitones []float64) {
	if len(semitones) == 0 {
		semitones = []float64{0}
	}
	if len(semitones) > MaxTranspositions {
		g.warn("too many transpositions, keeping the first ones", logrus.Fields{
			"given": len(semitones), "max": MaxTranspositions,
		})
		semitones = semitones[:MaxTranspositions]
	}

	g.numTranspositions = len(semitones)
	copy(g.transpositions[:], semitones)
	g.updateRates()
}

// Transpositions returns a copy of the current list in semitones.
func (g *Granulator) Transpositions() []float64 {
	return append([]float64(nil), g.transpositions[:g.numTranspositions]...)
}

func (g *Granulator) updateRates() {
	for i := range g.numTranspositions {
		g.rates[i] = utils.SemitoneToRate(g.transpositions[i], g.octaveSize, g.octaveDivisions)
	}
	g.offset = utils.SemitoneToRate(g.offsetST, g.octaveSize, g.octaveDivisions)
}

// SetOctaveSize sets the frequency ratio of an octave (2 for the usual one).
func (g *Granulator) SetOctaveSize(size float64) {
	if size <= 0 {
		g.warn("octave size must be > 0, ignoring", logrus.Fields{"size": size})
		return
	}
	g.octaveSize = size
	g.updateRates()
}

// SetOctaveDivisions sets how many steps make an octave (12 for semitones).
func (g *Granulator) SetOctaveDivisions(divs float64) {
	if divs <= 0 {
		g.warn("octave divisions must be > 0, ignoring", logrus.Fields{"divisions": divs})
		return
	}
	g.octaveDivisions = divs
	g.updateRates()
}

func (g *Granulator) highestRate() float64 {
	hi := 0.0
	for i := range g.numTranspositions {
		hi = max(hi, g.rates[i])
	}
	return hi * g.offset
}

// SetGrainLengthMS sets the nominal grain length. It must leave room for a
// ramp up and down, and the source must hold enough samples to play a grain
// at the highest transposition.
func (g *Granulator) SetGrainLengthMS(ms float64) {
	n := utils.MsToSamples(g.rate, ms)
	want := n

	if minLen := 2 * g.rampLen; n < minLen {
		g.warn("grain length too short for the ramp length, clamping", logrus.Fields{
			"grain_ms": ms, "ramp_ms": g.rampLenMS,
		})
		n = minLen
	}

	if src := g.src.n(); src > 0 {
		maxLen := int(float64(src-1) / g.highestRate())
		if n > maxLen {
			g.warn("buffer too short for grain length at the highest transposition, clamping", logrus.Fields{
				"grain_ms":  ms,
				"buffer_ms": g.src.ms,
				"max_ms":    utils.SamplesToMs(g.rate, maxLen),
			})
			n = max(maxLen, 2*g.rampLen)
		}
	}

	g.grainLen = n
	g.grainLenMS = ms
	if n != want {
		g.grainLenMS = utils.SamplesToMs(g.rate, n)
	}
}

// GrainLengthMS returns the nominal grain length.
func (g *Granulator) GrainLengthMS() float64 { return g.grainLenMS }

// SetGrainLengthDeviation sets how far, in percent, each grain's length may
// stray from the nominal length.
func (g *Granulator) SetGrainLengthDeviation(pct float64) {
	g.deviation = g.clampPercent("grain length deviation", pct)
}

// SetDensity sets the percentage of grains that sound. The rest run silent
// lives of the same length.
func (g *Granulator) SetDensity(pct float64) {
	g.density = g.clampPercent("density", pct)
}

// Density returns the current density.
func (g *Granulator) Density() float64 { return g.density }

func (g *Granulator) clampPercent(what string, pct float64) float64 {
	if pct >= 0 && pct <= 100 {
		return pct
	}
	c := min(max(pct, 0), 100)
	if math.IsNaN(pct) {
		c = 0
	}
	g.warn(what+" must be between 0 and 100, clamping", logrus.Fields{"value": pct, "used": c})
	return c
}

// SetDirection selects forward, backward, random or region-driven reading.
func (g *Granulator) SetDirection(d Direction) {
	if d < DirectionAuto || d > DirectionRandom {
		g.warn("unknown direction, using auto", logrus.Fields{"direction": int(d)})
		d = DirectionAuto
	}
	g.direction = d
}

// SetSamplesStartMS sets where in the source grains may start. A start after
// the end makes grains read backwards in DirectionAuto.
func (g *Granulator) SetSamplesStartMS(ms float64) {
	g.start, g.startMS = g.clampRegion("start", ms)
}

// SetSamplesEndMS sets where in the source grains must finish.
func (g *Granulator) SetSamplesEndMS(ms float64) {
	g.end, g.endMS = g.clampRegion("end", ms)
}

// Region returns the start and end in milliseconds.
func (g *Granulator) Region() (startMS, endMS float64) { return g.startMS, g.endMS }

// clampRegion keeps a region point inside the buffer. The last sample is the
// highest usable index so the interpolator always has a right neighbour.
func (g *Granulator) clampRegion(which string, ms float64) (int, float64) {
	n := g.src.n()
	if n == 0 {
		g.warn("no samples yet, region "+which+" will be reset when a buffer is set",
			logrus.Fields{"ms": ms})
		return 0, ms
	}

	s := utils.MsToSamples(g.rate, ms)
	switch {
	case ms < 0:
		g.warn("region "+which+" below 0, clamping", logrus.Fields{"ms": ms})
		return 0, 0
	case s >= n:
		s = n - 1
		clamped := utils.SamplesToMs(g.rate, s)
		if ms != g.src.ms {
			g.warn("region "+which+" past the end of the buffer, clamping", logrus.Fields{
				"ms": ms, "used_ms": clamped,
			})
		}
		return s, clamped
	}
	return s, ms
}

func (g *Granulator) resetRegion() {
	g.start, g.startMS = 0, 0
	g.end = max(g.src.n()-1, 0)
	g.endMS = utils.SamplesToMs(g.rate, g.end)
	g.warnRegionTooShort()
}

func (g *Granulator) warnRegionTooShort() {
	if avail := math.Abs(g.endMS - g.startMS); avail < g.grainLenMS {
		g.warn("region is shorter than the grain length, no grains can sound", logrus.Fields{
			"region_ms": avail, "grain_ms": g.grainLenMS,
		})
	}
}

// Portion sets the region as a centre and a width, both in percent of the
// buffer. A window that would run off either end is slid back inside.
func (g *Granulator) Portion(position, width float64) {
	if width <= 0 || width > 100 || position < 0 || position > 100 {
		g.warn("portion position and width are percentages, ignoring", logrus.Fields{
			"position": position, "width": width,
		})
		return
	}

	bufMS := g.src.ms
	widthMS := bufMS * width * 0.01
	posMS := bufMS * position * 0.01
	start := posMS - widthMS/2
	end := posMS + widthMS/2

	g.portionPosition = position
	g.portionWidth = width

	if start < 0 {
		start, end = 0, widthMS
	}
	if end > bufMS {
		start, end = bufMS-widthMS, bufMS
	}

	g.SetSamplesStartMS(start)
	g.SetSamplesEndMS(end)
	g.warnRegionTooShort()
}

// SetPortionPosition moves the portion centre, keeping its width.
func (g *Granulator) SetPortionPosition(position float64) {
	g.Portion(position, g.portionWidth)
}

// SetPortionWidth resizes the portion, keeping its centre.
func (g *Granulator) SetPortionWidth(width float64) {
	g.Portion(g.portionPosition, width)
}

// SetGrainAmp starts a glide to amp that lasts exactly one tick. Setting the
// value it is already heading for changes nothing.
func (g *Granulator) SetGrainAmp(amp float64) {
	if amp < 0 || amp > 100 || math.IsNaN(amp) {
		c := min(max(amp, 0), 100)
		if math.IsNaN(amp) {
			c = g.targetGrainAmp
		}
		g.warn("grain amp must be between 0 and 100, clamping", logrus.Fields{"amp": amp, "used": c})
		amp = c
	}
	if amp < minGrainAmp {
		amp = 0
	}
	if amp == g.targetGrainAmp {
		return
	}

	g.lastGrainAmp = g.grainAmp
	g.targetGrainAmp = amp
	g.glidePos = 0
	g.gliding = true
	if g.tickSize > 1 {
		g.grainAmpInc = (amp - g.lastGrainAmp) / float64(g.tickSize-1)
	}
}

// GrainAmp returns the amplitude reached so far and the glide target.
func (g *Granulator) GrainAmp() (current, target float64) {
	return g.grainAmp, g.targetGrainAmp
}

// SetMaxVoices sets how many voice slots exist, from 1 to MaxVoices. All
// grains restart, so it is only allowed while off.
func (g *Granulator) SetMaxVoices(n int) {
	if g.Status() != StatusOff {
		g.warn("can't change max voices while running, ignoring", logrus.Fields{"voices": n})
		return
	}
	if n < 1 || n > MaxVoices {
		c := min(max(n, 1), MaxVoices)
		g.warn("max voices out of range, clamping", logrus.Fields{"voices": n, "used": c})
		n = c
	}

	g.maxVoices = n
	g.grains = [MaxVoices]Grain{}
	if g.activeVoices > n || g.activeVoices == 0 {
		g.activeVoices = n
	}
	g.SetActiveVoices(g.activeVoices)
	g.initAll(true)
}

// MaxVoices returns the number of voice slots.
func (g *Granulator) MaxVoices() int { return g.maxVoices }

// SetActiveVoices sets how many of the voice slots are played. Voices above
// the count keep their state and contribute nothing until re-enabled; every
// voice gets a random delay at its next start.
func (g *Granulator) SetActiveVoices(n int) {
	if n < 0 || n > g.maxVoices {
		c := min(max(n, 0), g.maxVoices)
		g.warn("active voices out of range, clamping", logrus.Fields{
			"voices": n, "max": g.maxVoices, "used": c,
		})
		n = c
	}

	g.activeVoices = n
	for i := range g.maxVoices {
		gg := &g.grains[i]
		if i < n {
			gg.activity = ActivityActive
		} else {
			gg.activity = ActivityInactive
		}
		gg.delayMode = delayRandom
	}
}

// ActiveVoices returns how many voices are played.
func (g *Granulator) ActiveVoices() int { return g.activeVoices }

// SetActiveChannels limits new grains to the first n output channels.
func (g *Granulator) SetActiveChannels(n int) {
	if n < 1 || n > g.numChannels {
		c := min(max(n, 1), g.numChannels)
		g.warn("active channels out of range, clamping", logrus.Fields{
			"channels": n, "outputs": g.numChannels, "used": c,
		})
		n = c
	}
	g.activeChannels = n
}

// ActiveChannels returns how many channels new grains are spread over.
func (g *Granulator) ActiveChannels() int { return g.activeChannels }

// Channels returns the number of output channels.
func (g *Granulator) Channels() int { return g.numChannels }

// SetRampLenMS sets the grain and on/off fade length. It may only change
// while the engine is off, and is kept between MinRampLenMS and half the
// grain length.
func (g *Granulator) SetRampLenMS(ms float64) {
	if g.Status() != StatusOff {
		g.warn("can't change ramp length while running, ignoring", logrus.Fields{"ramp_ms": ms})
		return
	}

	if ms < MinRampLenMS {
		g.warn("ramp length too small, using the minimum", logrus.Fields{
			"ramp_ms": ms, "min_ms": MinRampLenMS,
		})
		ms = MinRampLenMS
	}
	if half := g.grainLenMS / 2; ms > half {
		g.warn("ramp length must be at most half the grain length, clamping", logrus.Fields{
			"ramp_ms": ms, "grain_ms": g.grainLenMS,
		})
		ms = half
	}

	g.rampLenMS = ms
	g.rampLen = max(utils.MsToSamples(g.rate, ms), 1)
	g.rebuildRamps()
}

// RampLenMS returns the ramp length.
func (g *Granulator) RampLenMS() float64 { return g.rampLenMS }

// SetRampType selects the ramp window by name. Only allowed while off.
func (g *Granulator) SetRampType(name string) {
	if g.Status() != StatusOff {
		g.warn("can't change ramp type while running, ignoring", logrus.Fields{"type": name})
		return
	}
	g.rampType = name
	g.rebuildRamps()
}

// RampType returns the ramp window name.
func (g *Granulator) RampType() string { return g.rampType }

// rebuildRamps publishes fresh ramp tables and restarts the grains so none
// is left pointing past the end of a shorter table.
func (g *Granulator) rebuildRamps() {
	r, ok := window.NewRamps(g.rampType, g.rampLen, g.beta)
	if !ok {
		g.warn("unknown ramp type, using a linear ramp", logrus.Fields{"type": g.rampType})
	}
	g.ramps.Store(r)
	g.initAll(true)
}

// UseStaticBuffer granulates samples. The slice is not copied and must stay
// valid while the engine uses it. The region is reset to the whole buffer.
func (g *Granulator) UseStaticBuffer(samples []float32) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}

	g.src.samples = samples
	g.src.ms = utils.SamplesToMs(g.rate, len(samples))
	g.src.live = false

	g.sourceChanged()
	return nil
}

// LiveRing is a live buffer allocated away from the audio path.
type LiveRing struct {
	buf  []float32
	ms   float64
	rate float64
}

// NewLiveRing allocates a live buffer for rate Hz holding DefaultLiveBufferMS,
// or ms when that is longer.
func NewLiveRing(rate, ms float64) LiveRing {
	if !(ms > DefaultLiveBufferMS) {
		ms = DefaultLiveBufferMS
	}
	return LiveRing{
		buf:  make([]float32, utils.MsToSamples(rate, ms)),
		ms:   ms,
		rate: rate,
	}
}

// MS is the length of the buffer.
func (r LiveRing) MS() float64 { return r.ms }

// UseLiveInput granulates the most recent ms of live input. The live buffer
// is allocated on first use; later it must already be at least ms long.
func (g *Granulator) UseLiveInput(ms float64) error {
	return g.UseLiveInputRing(LiveRing{}, ms)
}

// UseLiveInputRing is UseLiveInput for the audio path: when there is no live
// buffer yet, r is installed instead of allocating one. r is ignored when a
// buffer exists or when it was built for another sampling rate.
func (g *Granulator) UseLiveInputRing(r LiveRing, ms float64) error {
	if ms < MinLiveBufferMS {
		g.warn("live buffer below minimum, using the minimum", logrus.Fields{
			"ms": ms, "min_ms": MinLiveBufferMS,
		})
		ms = MinLiveBufferMS
	}

	if g.src.ring == nil {
		if r.buf != nil && r.rate == g.rate {
			g.installRing(r.buf, r.ms)
		} else {
			g.installRing(make([]float32, utils.MsToSamples(g.rate, DefaultLiveBufferMS)), DefaultLiveBufferMS)
		}
	}

	n := utils.MsToSamples(g.rate, ms)
	if n > len(g.src.ring) {
		g.warn("live buffer allocation is smaller than requested, use SetLiveBufferSize", logrus.Fields{
			"allocated_ms": g.src.ringMS, "requested_ms": ms,
		})
		return fmt.Errorf("%vms requested, %vms allocated: %w", ms, g.src.ringMS, ErrLiveBufferTooSmall)
	}

	g.src.samples = g.src.ring[:n]
	g.src.ms = ms
	g.src.live = true
	g.src.liveIndex = 0

	g.sourceChanged()
	return nil
}

// sourceChanged resets the region, fits the grain length to the buffer and
// restarts the grains.
func (g *Granulator) sourceChanged() {
	g.resetRegion()

	if n := g.src.n(); n < g.grainLen {
		ninety := int(float64(n) * 0.9)
		g.warn("buffer shorter than the grain length, using 90% of the buffer", logrus.Fields{
			"buffer_ms": g.src.ms,
			"grain_ms":  g.grainLenMS,
		})
		g.grainLen = ninety
		g.grainLenMS = utils.SamplesToMs(g.rate, ninety)
	}

	if g.Status() == StatusOff {
		g.initAll(true)
		return
	}
	g.ForceGrainReinit()
	g.DoGrainDelays()
}

// SetLiveBufferSize allocates the live buffer. Only allowed while off; the
// old buffer stays in place when the request is rejected.
func (g *Granulator) SetLiveBufferSize(ms float64) error {
	ms = g.clampLiveMS(ms)
	if err := g.checkRing(ms); err != nil {
		return err
	}
	return g.swapRing(make([]float32, utils.MsToSamples(g.rate, ms)), ms)
}

func (g *Granulator) clampLiveMS(ms float64) float64 {
	if ms < MinLiveBufferMS || math.IsNaN(ms) {
		g.warn("live buffer below minimum, using the minimum", logrus.Fields{
			"ms": ms, "min_ms": MinLiveBufferMS,
		})
		return MinLiveBufferMS
	}
	return ms
}

func (g *Granulator) checkRing(ms float64) error {
	if g.Status() != StatusOff {
		g.warn("can't change the live buffer while running, ignoring", logrus.Fields{"ms": ms})
		return ErrNotOff
	}
	if ms < g.grainLenMS {
		g.warn("live buffer shorter than the grain length, ignoring", logrus.Fields{
			"ms": ms, "grain_ms": g.grainLenMS,
		})
		return fmt.Errorf("%vms < grain %vms: %w", ms, g.grainLenMS, ErrLiveBufferTooSmall)
	}
	return nil
}

// swapRing installs a buffer built elsewhere, checking again in case the
// engine changed since it was allocated.
func (g *Granulator) swapRing(buf []float32, ms float64) error {
	if err := g.checkRing(ms); err != nil {
		return err
	}
	g.installRing(buf, ms)
	return nil
}

func (g *Granulator) installRing(buf []float32, ms float64) {
	g.src.ring = buf
	g.src.ringMS = ms

	if g.src.live {
		n := min(g.src.n(), len(buf))
		g.src.samples = buf[:n]
		g.src.ms = min(g.src.ms, ms)
		g.src.liveIndex = 0
		g.resetRegion()
		g.initAll(true)
	}
}

// LiveBufferMS returns the allocated live buffer length.
func (g *Granulator) LiveBufferMS() float64 { return g.src.ringMS }

// Live reports whether grains read the live buffer.
func (g *Granulator) Live() bool { return g.src.live }

// BufferMS returns the length of the active source.
func (g *Granulator) BufferMS() float64 { return g.src.ms }

// CopyInputSamples writes live input into the ring buffer. It does nothing
// when the engine is not in live mode.
func (g *Granulator) CopyInputSamples(in []float32) {
	g.src.copyIn(in)
}

// LiveIndex is the next slot CopyInputSamples will write.
func (g *Granulator) LiveIndex() int { return g.src.liveIndex }

// ClearLiveSamples silences the ring buffer and rewinds the write index.
func (g *Granulator) ClearLiveSamples() {
	if g.src.live {
		g.src.clearRing()
	}
}

// SetLiveRecording starts or freezes live recording. Engine.Process only
// copies input while recording.
func (g *Granulator) SetLiveRecording(on bool) { g.src.recording = on }

// LiveRecording reports whether live input is being recorded.
func (g *Granulator) LiveRecording() bool { return g.src.recording }

// BufferGrainRamp swaps the source and sets grain and ramp length in one go,
// which avoids the two lengths rejecting each other. Only allowed while off.
func (g *Granulator) BufferGrainRamp(samples []float32, grainMS, rampMS float64) error {
	if g.Status() != StatusOff {
		g.warn("BufferGrainRamp can only be called when off", nil)
		return ErrNotOff
	}

	return g.withGrainRamp(func() error { return g.UseStaticBuffer(samples) }, grainMS, rampMS)
}

// withGrainRamp clears both lengths so neither limits the other, switches
// the source and sets them again. A rejected source puts the old lengths back.
func (g *Granulator) withGrainRamp(use func() error, grainMS, rampMS float64) error {
	grainLen, grainLenMS := g.grainLen, g.grainLenMS
	rampLen, rampLenMS := g.rampLen, g.rampLenMS

	g.grainLen, g.grainLenMS = 0, 0
	g.rampLen, g.rampLenMS = 0, 0

	if err := use(); err != nil {
		g.grainLen, g.grainLenMS = grainLen, grainLenMS
		g.rampLen, g.rampLenMS = rampLen, rampLenMS
		return err
	}
	g.SetGrainLengthMS(grainMS)
	g.SetRampLenMS(rampMS)

	return nil
}

// On fades the engine in. Turning on from off clears the live buffer so no
// stale input is heard.
func (g *Granulator) On() {
	switch g.Status() {
	case StatusOff:
		g.ClearLiveSamples()
		g.statusRamp = 0
	case StatusStopping:
		g.statusRamp = mirrorIndex(g.statusRamp, g.rampLen)
	default:
		return
	}
	g.setStatus(StatusStarting)
}

// Off fades the engine out. When the fade ends all grains restart with
// random delays, ready for the next On.
func (g *Granulator) Off() {
	switch g.Status() {
	case StatusOn:
		g.statusRamp = 0
	case StatusStarting:
		g.statusRamp = mirrorIndex(g.statusRamp, g.rampLen)
	default:
		return
	}
	g.setStatus(StatusStopping)
}

// Toggle switches between On and Off.
func (g *Granulator) Toggle() {
	switch g.Status() {
	case StatusOff, StatusStopping:
		g.On()
	default:
		g.Off()
	}
}

// mirrorIndex maps a position in one ramp to the position with the same
// value in its reverse.
func mirrorIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return max(n-1-i, 0)
}

// ForceGrainReinit makes every grain fade out now. Each gets new parameters
// as soon as its ramp-down ends.
func (g *Granulator) ForceGrainReinit() {
	for i := range g.maxVoices {
		g.grains[i].forceStop(g.rampLen)
	}
}

// DoGrainDelays gives every voice a random delay at its next start.
func (g *Granulator) DoGrainDelays() {
	for i := range g.maxVoices {
		g.grains[i].delayMode = delayRandom
	}
}

// SmoothMode spreads the voices evenly over one grain length and removes
// length deviation, for a steady texture.
func (g *Granulator) SmoothMode() {
	g.ForceGrainReinit()
	g.deviation = 0

	av := g.activeVoices
	if av == 0 {
		return
	}

	step := max(g.grainLen/av, 2)
	for i := range av {
		gg := &g.grains[i]
		gg.delayMode = delayFixed
		gg.delayFixed = i * step
	}
}

// LiveGrainRamp is BufferGrainRamp for the live buffer.
func (g *Granulator) LiveGrainRamp(liveMS, grainMS, rampMS float64) error {
	if g.Status() != StatusOff {
		g.warn("LiveGrainRamp can only be called when off", nil)
		return ErrNotOff
	}

	return g.withGrainRamp(func() error { return g.UseLiveInput(liveMS) }, grainMS, rampMS)
}
