// SPDX-License-Identifier: EPL-2.0

package granular

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/audgrain/utils"
	"github.com/ik5/audgrain/window"
)

const (
	// MaxVoices is the size of the voice array.
	MaxVoices = 256
	// MaxTranspositions is the longest transposition list kept.
	MaxTranspositions = 256

	// MinLiveBufferMS is the smallest live buffer accepted.
	MinLiveBufferMS = 6.0
	// DefaultLiveBufferMS is allocated the first time live input is used.
	DefaultLiveBufferMS = 10000.0
	// MinRampLenMS is the shortest grain ramp.
	MinRampLenMS = 0.5

	defaultGrainLenMS = 50.0
	defaultDeviation  = 10.0
	defaultDensity    = 100.0
	defaultGrainAmp   = 0.5
	minGrainAmp       = 0.00001
)

// Config holds what is fixed when a Granulator is built.
type Config struct {
	SamplingRate float64
	MaxVoices    int
	Channels     int
	// TickSize is the number of samples the host processes per callback.
	TickSize   int
	RampLenMS  float64
	RampType   string
	GrainLenMS float64
	Seed       int64
	Logger     logrus.FieldLogger
	Warnings   bool
}

// DefaultConfig returns a stereo, ten voice setup at 44.1kHz.
func DefaultConfig() Config {
	return Config{
		SamplingRate: 44100,
		MaxVoices:    10,
		Channels:     2,
		TickSize:     64,
		RampLenMS:    10,
		RampType:     window.DefaultShape,
		GrainLenMS:   defaultGrainLenMS,
		Seed:         time.Now().UnixNano(),
		Warnings:     true,
	}
}

// Granulator mixes up to MaxVoices grains into a set of output channels.
//
// A Granulator belongs to the goroutine that calls Go. Setters may be called
// from that goroutine between ticks; other goroutines should go through an
// Engine. Status and Ramps are safe to read from anywhere.
type Granulator struct {
	log      logrus.FieldLogger
	warnings atomic.Bool
	rng      *utils.Rand

	rate     float64
	tickSize int
	amps     []float32
	views    [][]float32
	scratch  []float32
	ctx      mixContext

	numChannels    int
	activeChannels int
	maxVoices      int
	activeVoices   int
	grains         [MaxVoices]Grain

	transpositions    [MaxTranspositions]float64
	rates             [MaxTranspositions]float64
	numTranspositions int
	offsetST          float64
	offset            float64
	octaveSize        float64
	octaveDivisions   float64

	grainLenMS float64
	grainLen   int
	deviation  float64
	density    float64
	direction  Direction

	startMS, endMS  float64
	start, end      int
	portionPosition float64
	portionWidth    float64

	rampLenMS  float64
	rampLen    int
	rampType   string
	beta       float64
	ramps      atomic.Pointer[window.Ramps]
	statusRamp int
	status     atomic.Int32

	grainAmp       float64
	targetGrainAmp float64
	lastGrainAmp   float64
	grainAmpInc    float64
	glidePos       int
	gliding        bool

	src source
}

// New builds a Granulator. It is off and has no samples until UseStaticBuffer
// or UseLiveInput is called.
func New(cfg Config) (*Granulator, error) {
	if cfg.SamplingRate <= 0 || math.IsNaN(cfg.SamplingRate) {
		return nil, fmt.Errorf("%v: %w", cfg.SamplingRate, ErrInvalidSamplingRate)
	}
	if cfg.Channels < 1 {
		return nil, fmt.Errorf("%d: %w", cfg.Channels, ErrInvalidChannels)
	}
	if cfg.TickSize < 1 {
		return nil, fmt.Errorf("%d: %w", cfg.TickSize, ErrInvalidTickSize)
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	g := &Granulator{
		log:             log.WithField("component", "granular"),
		rng:             utils.NewRand(cfg.Seed),
		rate:            cfg.SamplingRate,
		numChannels:     cfg.Channels,
		activeChannels:  cfg.Channels,
		views:           make([][]float32, cfg.Channels),
		octaveSize:      2,
		octaveDivisions: 12,
		offset:          1,
		deviation:       defaultDeviation,
		density:         defaultDensity,
		portionPosition: 50,
		portionWidth:    100,
		beta:            window.DefaultBeta,
		rampType:        cfg.RampType,
		grainAmp:        defaultGrainAmp,
		targetGrainAmp:  defaultGrainAmp,
		lastGrainAmp:    defaultGrainAmp,
	}

	if g.rampType == "" {
		g.rampType = window.DefaultShape
	}
	g.warnings.Store(cfg.Warnings)

	g.SetTranspositions(nil)
	g.Prepare(cfg.TickSize)

	maxVoices := cfg.MaxVoices
	if maxVoices == 0 {
		maxVoices = DefaultConfig().MaxVoices
	}
	g.SetMaxVoices(maxVoices)

	grainMS := cfg.GrainLenMS
	if grainMS <= 0 {
		grainMS = defaultGrainLenMS
	}
	g.grainLenMS = grainMS
	g.grainLen = utils.MsToSamples(g.rate, grainMS)

	rampMS := cfg.RampLenMS
	if rampMS <= 0 {
		rampMS = DefaultConfig().RampLenMS
	}
	g.SetRampLenMS(rampMS)

	return g, nil
}

// Prepare sets the host's tick size. It allocates, so call it before
// processing starts or when the host's block size changes.
func (g *Granulator) Prepare(tickSize int) {
	if tickSize < 1 {
		g.warn("tick size must be at least 1", logrus.Fields{"tick": tickSize})
		tickSize = 1
	}

	g.tickSize = tickSize
	g.amps = make([]float32, tickSize)
	g.scratch = make([]float32, tickSize)

	if g.gliding && tickSize > 1 {
		g.grainAmpInc = (g.targetGrainAmp - g.lastGrainAmp) / float64(tickSize-1)
	}
}

// Status is safe to call from any goroutine.
func (g *Granulator) Status() Status {
	return Status(g.status.Load())
}

func (g *Granulator) setStatus(s Status) {
	g.status.Store(int32(s))
}

// Ramps returns the current ramp tables. Safe to call from any goroutine.
func (g *Granulator) Ramps() *window.Ramps {
	return g.ramps.Load()
}

// Grain returns voice i for inspection, or nil when out of range.
func (g *Granulator) Grain(i int) *Grain {
	if i < 0 || i >= g.maxVoices {
		return nil
	}
	return &g.grains[i]
}

// Go renders n samples into out, one slice per channel. Work is done in
// chunks of at most the tick size; every chunk first silences the channel
// buffers, so out holds only this engine's output afterwards.
func (g *Granulator) Go(out [][]float32, n int) {
	for c := range min(len(out), g.numChannels) {
		if out[c] != nil {
			n = min(n, len(out[c]))
		}
	}

	for off := 0; off < n; off += g.tickSize {
		g.tick(out, off, min(g.tickSize, n-off))
	}
}

func (g *Granulator) tick(out [][]float32, off, m int) {
	g.fillAmps(m)

	for c := range g.views {
		if c < len(out) && out[c] != nil {
			g.views[c] = out[c][off : off+m]
		} else {
			g.views[c] = g.scratch[:m]
		}
		clear(g.views[c])
	}

	status := g.Status()
	if status == StatusOff || g.src.n() == 0 {
		return
	}

	ramps := g.ramps.Load()
	g.ctx = mixContext{
		samples:  g.src.samples,
		circular: g.src.live,
		up:       ramps.Up,
		down:     ramps.Down,
		amps:     g.amps[:m],
	}

	for i := range g.activeVoices {
		gg := &g.grains[i]
		if gg.Exhausted() {
			g.initGrain(gg, false)
		}
		if gg.channel >= len(g.views) {
			gg.channel = 0
		}
		gg.MixIn(g.views[gg.channel], &g.ctx)
	}

	if status == StatusStarting || status == StatusStopping {
		g.applyStatusEnvelope(ramps, m)
	}
}

func (g *Granulator) applyStatusEnvelope(ramps *window.Ramps, m int) {
	for i := range m {
		v := g.statusAmp(ramps)
		for _, w := range g.views {
			w[i] *= v
		}
	}
}

// statusAmp steps the engine-wide fade by one sample.
func (g *Granulator) statusAmp(ramps *window.Ramps) float32 {
	n := ramps.Len()

	switch g.Status() {
	case StatusStarting:
		var v float32 = 1
		if g.statusRamp < n {
			v = ramps.Up[g.statusRamp]
		}
		g.statusRamp++
		if g.statusRamp >= n {
			g.setStatus(StatusOn)
			g.statusRamp = 0
			v = 1
		}
		return v
	case StatusStopping:
		var v float32
		if g.statusRamp < n {
			v = ramps.Down[g.statusRamp]
		}
		g.statusRamp++
		if g.statusRamp >= n {
			g.setStatus(StatusOff)
			g.statusRamp = 0
			v = 0
			g.initAll(true)
		}
		return v
	case StatusOn:
		return 1
	}
	return 0
}

// fillAmps writes the per-sample grain amplitude for the next m samples.
func (g *Granulator) fillAmps(m int) {
	for i := range m {
		g.amps[i] = float32(g.nextAmp())
	}
}

// nextAmp moves the amplitude glide on by one sample. A glide starts on
// lastGrainAmp and lands exactly on targetGrainAmp tickSize samples later.
func (g *Granulator) nextAmp() float64 {
	if !g.gliding {
		return g.grainAmp
	}

	if g.glidePos >= g.tickSize-1 {
		g.grainAmp = g.targetGrainAmp
		g.gliding = false
	} else {
		g.grainAmp = max(g.lastGrainAmp+g.grainAmpInc*float64(g.glidePos), 0)
	}
	g.glidePos++

	return g.grainAmp
}

// region returns the read region in ascending order and whether the user
// gave it reversed.
func (g *Granulator) region() (lo, hi int, reversed bool) {
	if g.start > g.end {
		return g.end, g.start, true
	}
	return g.start, g.end, false
}

func (g *Granulator) readBackwards(reversed bool) bool {
	switch g.direction {
	case DirectionForward:
		return false
	case DirectionBackward:
		return true
	case DirectionRandom:
		return g.rng.CoinFlip() == 1
	}
	return reversed
}

// initGrain rolls a new life for gg: transposition, length, start point,
// direction, channel, density and an optional delay.
func (g *Granulator) initGrain(gg *Grain, firstDelay bool) {
	if gg.activity == ActivityInactive {
		gg.switchOff()
		return
	}

	plen := max(g.grainLen, 2*g.rampLen)
	inc := g.rates[g.rng.Intn(g.numTranspositions)] * g.offset
	lo, hi, reversed := g.region()
	backwards := g.readBackwards(reversed)

	length := int(math.Round(g.rng.RandomlyDeviate(float64(plen), g.deviation)))

	var newLive int
	if g.src.live {
		// samples written while this grain plays must not be read by it
		newLive = g.tickSize * (1 + length/g.tickSize)
	}
	needed := float64(length) * inc

	audible := length >= 2*g.rampLen
	minStart := float64(lo + newLive)
	maxStart := float64(hi) - needed
	if maxStart < minStart {
		audible = false
	}

	var st, nd float64
	if audible {
		st = g.rng.UniformRandom(minStart, maxStart)
		if inc == 1 {
			st = math.Floor(st)
		}
		nd = st + needed
	} else {
		st = float64(lo)
		nd = float64(lo + plen)
		inc = 1
	}

	if g.src.live {
		st += float64(g.src.liveIndex)
		nd += float64(g.src.liveIndex)
	}

	gg.length = length
	gg.backwards = backwards
	if backwards {
		gg.start, gg.end, gg.inc = nd, st, -inc
	} else {
		gg.start, gg.end, gg.inc = st, nd, inc
	}
	gg.current = gg.start
	gg.icurrent = 0
	gg.rampi = 0
	gg.endRampUp = g.rampLen
	gg.startRampDown = length - g.rampLen
	gg.channel = g.rng.Intn(g.activeChannels)

	if g.rng.UniformRandom(0, 100) >= g.density {
		audible = false
	}
	gg.audible = audible

	gg.delay = 0
	gg.delayCounter = 0
	if firstDelay || gg.delayMode != delayNone {
		if gg.delayMode == delayFixed {
			gg.delay = gg.delayFixed
		} else {
			gg.delay = int(g.rng.UniformRandom(0, 2*float64(length)))
		}
		gg.delayMode = delayNone
	}

	gg.phase = PhaseInactive
	gg.settle()
}

// initAll restarts every voice from scratch. It needs samples to place the
// grains, so it does nothing until a source is set.
func (g *Granulator) initAll(firstDelay bool) {
	if g.src.n() == 0 {
		return
	}
	for i := range g.maxVoices {
		g.initGrain(&g.grains[i], firstDelay)
	}
}

func (g *Granulator) warn(msg string, fields logrus.Fields) {
	if !g.warnings.Load() {
		return
	}
	g.log.WithFields(fields).Warn(msg)
}
