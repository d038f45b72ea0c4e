// SPDX-License-Identifier: EPL-2.0

package granular

import (
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

// newTestGranulator builds a mono engine at 1kHz so that one sample is one
// millisecond: 100 sample grains, 10 sample ramps, 64 sample ticks.
func newTestGranulator(t testing.TB, mutate func(*Config)) *Granulator {
	t.Helper()

	logger, _ := test.NewNullLogger()
	cfg := Config{
		SamplingRate: 1000,
		MaxVoices:    1,
		Channels:     1,
		TickSize:     64,
		RampLenMS:    10,
		RampType:     "HANNING",
		GrainLenMS:   100,
		Seed:         1,
		Logger:       logger,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func impulse(n, at int) []float32 {
	s := make([]float32, n)
	s[at] = 1
	return s
}

func newOut(channels, n int) [][]float32 {
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, n)
	}
	return out
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "zero rate", mutate: func(c *Config) { c.SamplingRate = 0 }, want: ErrInvalidSamplingRate},
		{name: "NaN rate", mutate: func(c *Config) { c.SamplingRate = math.NaN() }, want: ErrInvalidSamplingRate},
		{name: "no channels", mutate: func(c *Config) { c.Channels = 0 }, want: ErrInvalidChannels},
		{name: "zero tick", mutate: func(c *Config) { c.TickSize = 0 }, want: ErrInvalidTickSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := New(cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Warnings = false

	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if g.Status() != StatusOff {
		t.Errorf("Status() = %v, want off", g.Status())
	}
	if g.MaxVoices() != 10 || g.ActiveVoices() != 10 {
		t.Errorf("voices = %d/%d, want 10/10", g.ActiveVoices(), g.MaxVoices())
	}
	if g.Channels() != 2 || g.ActiveChannels() != 2 {
		t.Errorf("channels = %d/%d, want 2/2", g.ActiveChannels(), g.Channels())
	}
	if got := g.Ramps().Len(); got != 441 {
		t.Errorf("Ramps().Len() = %d, want 441", got)
	}
	if cur, target := g.GrainAmp(); cur != 0.5 || target != 0.5 {
		t.Errorf("GrainAmp() = %v, %v, want 0.5, 0.5", cur, target)
	}
}

// A single impulse in the source must come out exactly once, delayed by the
// grain's start delay plus its distance from the grain start, scaled by the
// grain amplitude.
func TestImpulseThroughOneGrain(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, nil)
	g.SetGrainLengthDeviation(0)

	if err := g.UseStaticBuffer(impulse(1000, 500)); err != nil {
		t.Fatalf("UseStaticBuffer() error = %v", err)
	}
	g.SetSamplesStartMS(450)
	g.SetSamplesEndMS(551)
	g.initAll(true)
	g.setStatus(StatusOn)

	gg := g.Grain(0)
	start, _ := gg.Bounds()
	if start != 450 {
		t.Fatalf("grain start = %v, want 450", start)
	}
	if gg.Length() != 100 {
		t.Fatalf("grain length = %d, want 100", gg.Length())
	}

	delay := gg.delay
	peak := delay + 500 - int(start)
	n := delay + gg.Length()

	out := newOut(1, n)
	g.Go(out, n)

	for i, v := range out[0] {
		want := float32(0)
		if i == peak {
			want = 0.5
		}
		if v != want {
			t.Errorf("out[%d] = %v, want %v", i, v, want)
		}
	}
}

// At 44.1kHz an impulse read during the ramps comes out scaled by the ramp
// value at that point of the grain as well as by the grain amplitude.
func TestImpulseInsideRamps(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, func(c *Config) { c.SamplingRate = 44100 })
	g.SetGrainLengthDeviation(0)

	// the region is exactly one grain long, so the grain starts at 44100
	src := make([]float32, 88200)
	src[44100+100] = 1
	src[44100+4310] = 1
	if err := g.UseStaticBuffer(src); err != nil {
		t.Fatalf("UseStaticBuffer() error = %v", err)
	}
	g.SetSamplesStartMS(1000)
	g.SetSamplesEndMS(1100)
	g.initAll(true)
	g.setStatus(StatusOn)

	gg := g.Grain(0)
	if start, _ := gg.Bounds(); start != 44100 || gg.Length() != 4410 {
		t.Fatalf("grain start %v length %d, want 44100 and 4410", start, gg.Length())
	}
	ramps := g.Ramps()
	if ramps.Len() != 441 {
		t.Fatalf("Ramps().Len() = %d, want 441", ramps.Len())
	}

	delay := gg.delay
	peaks := map[int]float32{
		delay + 100:  0.5 * ramps.Up[100],
		delay + 4310: 0.5 * ramps.Down[4310-(4410-441)],
	}
	n := delay + gg.Length()

	out := newOut(1, n)
	g.Go(out, n)

	for i, v := range out[0] {
		want := peaks[i]
		if math.Abs(float64(v-want)) > 1e-7 {
			t.Errorf("out[%d] = %v, want %v", i, v, want)
		}
	}
	for at, want := range peaks {
		if want <= 0 || want >= 0.5 {
			t.Errorf("peak at %d = %v, want strictly inside the ramp", at, want)
		}
	}
}

func TestExhaustedGrainReinitsOnNextGo(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, nil)
	if err := g.UseStaticBuffer(noise(1000)); err != nil {
		t.Fatal(err)
	}
	g.SetGrainLengthDeviation(20)
	g.SetSamplesStartMS(100)
	g.SetSamplesEndMS(900)
	g.setStatus(StatusOn)

	gg := g.Grain(0)
	out := newOut(1, 1)
	restarts := 0

	for range 3000 {
		exhausted := gg.Exhausted()
		g.Go(out, 1)
		if !exhausted {
			continue
		}
		restarts++

		if gg.Exhausted() || gg.icurrent > 1 {
			t.Fatalf("grain not restarted by the next Go: icurrent %d of %d", gg.icurrent, gg.Length())
		}
		if gg.Length() < 80 || gg.Length() > 120 {
			t.Fatalf("new length = %d, want 100 +-20%%", gg.Length())
		}
		a, b := gg.Bounds()
		if gg.Backwards() {
			a, b = b, a
		}
		if a < 100 || b > 900 {
			t.Fatalf("new grain reads [%v, %v], outside [100, 900]", a, b)
		}
	}

	if restarts < 10 {
		t.Errorf("%d restarts in 3000 samples, want at least 10", restarts)
	}
}

func TestForceGrainReinitRampsDown(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, nil)
	flat := make([]float32, 1000)
	for i := range flat {
		flat[i] = 0.5
	}
	if err := g.UseStaticBuffer(flat); err != nil {
		t.Fatal(err)
	}
	g.setStatus(StatusOn)

	gg := g.Grain(0)
	out := newOut(1, 1)
	var prev float32
	step := func() float32 {
		g.Go(out, 1)
		d := float32(math.Abs(float64(out[0][0] - prev)))
		prev = out[0][0]
		return d
	}

	for i := 0; gg.Phase() != PhaseActive || gg.icurrent < 30; i++ {
		if i > 1000 {
			t.Fatalf("grain never reached the middle of its life, phase %v", gg.Phase())
		}
		step()
	}
	if math.Abs(float64(prev-0.25)) > 1e-6 {
		t.Fatalf("steady output = %v, want 0.25", prev)
	}

	g.ForceGrainReinit()
	if gg.Phase() != PhaseStopping {
		t.Fatalf("phase after ForceGrainReinit = %v, want stopping", gg.Phase())
	}
	if gg.Length() != gg.icurrent+10 {
		t.Errorf("length = %d, want the ramp down from %d", gg.Length(), gg.icurrent)
	}

	restarted := false
	for i := range 40 {
		was := gg.Exhausted()
		if d := step(); d > 0.1 {
			t.Fatalf("output stepped by %v at sample %d after the forced stop", d, i)
		}
		restarted = restarted || was
	}
	if !restarted {
		t.Error("grain was not restarted after its forced ramp down")
	}
}

func TestDoGrainDelays(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, func(c *Config) { c.MaxVoices = 4 })
	if err := g.UseStaticBuffer(noise(1000)); err != nil {
		t.Fatal(err)
	}
	g.setStatus(StatusOn)
	out := newOut(1, 1)
	g.Go(newOut(1, 400), 400)

	g.DoGrainDelays()
	g.ForceGrainReinit()

	delays := make(map[int]int)
	for range 50 {
		g.Go(out, 1)
		for i := range 4 {
			gg := g.Grain(i)
			if _, seen := delays[i]; !seen && gg.delayMode == delayNone {
				delays[i] = gg.delay
				if gg.delay >= 2*gg.Length() {
					t.Errorf("voice %d delay = %d, want below %d", i, gg.delay, 2*gg.Length())
				}
			}
		}
	}

	if len(delays) != 4 {
		t.Fatalf("%d of 4 voices restarted, want all", len(delays))
	}
	delayed := 0
	for _, d := range delays {
		if d > 0 {
			delayed++
		}
	}
	if delayed == 0 {
		t.Error("no voice got a start delay")
	}
}

func TestGoOverwritesOutput(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, nil)
	out := newOut(1, 100)
	for i := range out[0] {
		out[0][i] = 1
	}

	g.Go(out, 100)

	for i, v := range out[0] {
		if v != 0 {
			t.Fatalf("out[%d] = %v after Go while off, want 0", i, v)
		}
	}
}

func TestGoClampsToShortestChannel(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, func(c *Config) { c.Channels = 2 })
	out := [][]float32{make([]float32, 10), make([]float32, 5)}

	// must not index past the end of the shorter channel
	g.Go(out, 10)
}

func TestGoMissingChannelsUseScratch(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, func(c *Config) {
		c.Channels = 2
		c.MaxVoices = 8
	})
	if err := g.UseStaticBuffer(noise(1000)); err != nil {
		t.Fatal(err)
	}
	g.setStatus(StatusOn)

	out := [][]float32{make([]float32, 256), nil}
	g.Go(out, 256)
}

func TestAmpGlideLandsInOneTick(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, func(c *Config) { c.TickSize = 8 })

	g.SetGrainAmp(1)
	g.fillAmps(8)

	if g.amps[0] != 0.5 {
		t.Errorf("amps[0] = %v, want the previous amp 0.5", g.amps[0])
	}
	if g.amps[7] != 1 {
		t.Errorf("amps[7] = %v, want the target 1", g.amps[7])
	}
	for i := 1; i < 8; i++ {
		if g.amps[i] < g.amps[i-1] {
			t.Errorf("amps[%d] = %v < amps[%d] = %v, want a rising glide", i, g.amps[i], i-1, g.amps[i-1])
		}
	}

	// setting the same target again must not restart anything
	g.SetGrainAmp(1)
	g.fillAmps(8)
	for i, v := range g.amps {
		if v != 1 {
			t.Errorf("amps[%d] = %v after the glide, want 1", i, v)
		}
	}
}

func TestAmpGlideRetargetsMidway(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, func(c *Config) { c.TickSize = 8 })

	g.SetGrainAmp(1)
	g.fillAmps(4)
	mid := g.amps[3]

	g.SetGrainAmp(0)
	g.fillAmps(8)

	if g.amps[0] != mid {
		t.Errorf("retargeted glide starts at %v, want %v", g.amps[0], mid)
	}
	if g.amps[7] != 0 {
		t.Errorf("retargeted glide ends at %v, want 0", g.amps[7])
	}
}

func TestStatusFades(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, nil)
	if err := g.UseStaticBuffer(noise(1000)); err != nil {
		t.Fatal(err)
	}

	g.On()
	if g.Status() != StatusStarting {
		t.Fatalf("after On: %v, want starting", g.Status())
	}

	out := newOut(1, 64)
	g.Go(out, 5)
	if g.Status() != StatusStarting {
		t.Fatalf("mid fade in: %v, want starting", g.Status())
	}
	g.Go(out, 5)
	if g.Status() != StatusOn {
		t.Fatalf("after a full ramp: %v, want on", g.Status())
	}

	g.Off()
	if g.Status() != StatusStopping {
		t.Fatalf("after Off: %v, want stopping", g.Status())
	}
	g.Go(out, 64)
	if g.Status() != StatusOff {
		t.Fatalf("after a full ramp: %v, want off", g.Status())
	}
	for i := 10; i < 64; i++ {
		if out[0][i] != 0 {
			t.Fatalf("out[%d] = %v after reaching off, want 0", i, out[0][i])
		}
	}

	// reaching off restarts every grain
	if gg := g.Grain(0); gg.icurrent != 0 || gg.delayCounter != 0 {
		t.Errorf("grain at %d/%d after off, want a fresh grain", gg.icurrent, gg.delayCounter)
	}
}

func TestStatusReverseMidFade(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, nil)
	if err := g.UseStaticBuffer(noise(1000)); err != nil {
		t.Fatal(err)
	}

	g.On()
	g.Go(newOut(1, 3), 3)
	g.Off()

	if g.Status() != StatusStopping {
		t.Fatalf("Status() = %v, want stopping", g.Status())
	}
	// three samples up the ramp mirror to three samples before its end
	if g.statusRamp != 6 {
		t.Errorf("statusRamp = %d, want 6", g.statusRamp)
	}
}

func TestToggle(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, nil)

	g.Toggle()
	if g.Status() != StatusStarting {
		t.Errorf("Toggle from off = %v, want starting", g.Status())
	}
	g.Toggle()
	if g.Status() != StatusStopping {
		t.Errorf("Toggle from starting = %v, want stopping", g.Status())
	}
}

func TestDormantVoicesAreSilentAndFrozen(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, func(c *Config) { c.MaxVoices = 4 })
	if err := g.UseStaticBuffer(noise(1000)); err != nil {
		t.Fatal(err)
	}
	g.setStatus(StatusOn)

	g.SetActiveVoices(0)
	out := newOut(1, 512)
	g.Go(out, 512)
	for i, v := range out[0] {
		if v != 0 {
			t.Fatalf("out[%d] = %v with no active voices, want 0", i, v)
		}
	}

	g.SetActiveVoices(2)
	frozen := *g.Grain(3)
	g.Go(out, 512)
	if *g.Grain(3) != frozen {
		t.Error("dormant voice changed state while others played")
	}
	if g.Grain(3).Activity() != ActivityInactive {
		t.Errorf("voice 3 activity = %v, want inactive", g.Grain(3).Activity())
	}
}

func TestReinitStaysInRegion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		direction Direction
		start     float64
		end       float64
	}{
		{name: "forward", direction: DirectionForward, start: 100, end: 900},
		{name: "backward", direction: DirectionBackward, start: 100, end: 900},
		{name: "random", direction: DirectionRandom, start: 100, end: 900},
		{name: "reversed region", direction: DirectionAuto, start: 900, end: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := newTestGranulator(t, func(c *Config) { c.MaxVoices = 16 })
			if err := g.UseStaticBuffer(noise(1000)); err != nil {
				t.Fatal(err)
			}
			g.SetTranspositions([]float64{-12, 0, 7})
			g.SetGrainLengthDeviation(20)
			g.SetDirection(tt.direction)
			g.SetSamplesStartMS(tt.start)
			g.SetSamplesEndMS(tt.end)

			lo, hi := min(tt.start, tt.end), max(tt.start, tt.end)

			for range 200 {
				g.initAll(false)
				for i := range g.MaxVoices() {
					gg := g.Grain(i)
					if !gg.audible {
						continue
					}
					a, b := gg.Bounds()
					if gg.Backwards() {
						a, b = b, a
					}
					if a < lo || b > hi {
						t.Fatalf("voice %d reads [%v, %v], outside [%v, %v]", i, a, b, lo, hi)
					}
					if gg.Length() < 80 || gg.Length() > 120 {
						t.Fatalf("voice %d length = %d, want 100 +-20%%", i, gg.Length())
					}
					if tt.direction == DirectionForward && gg.Backwards() {
						t.Fatalf("voice %d reads backwards", i)
					}
					if (tt.direction == DirectionBackward || tt.start > tt.end) && !gg.Backwards() {
						t.Fatalf("voice %d reads forwards", i)
					}
				}
			}
		})
	}
}

func TestDensityZeroIsSilent(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, func(c *Config) { c.MaxVoices = 8 })
	if err := g.UseStaticBuffer(noise(1000)); err != nil {
		t.Fatal(err)
	}
	g.SetDensity(0)
	g.initAll(false)
	g.setStatus(StatusOn)

	out := newOut(1, 1024)
	g.Go(out, 1024)
	for i, v := range out[0] {
		if v != 0 {
			t.Fatalf("out[%d] = %v at density 0, want 0", i, v)
		}
	}
}

func TestLiveModeRendersInput(t *testing.T) {
	t.Parallel()

	g := newTestGranulator(t, func(c *Config) { c.MaxVoices = 4 })
	if err := g.UseLiveInput(1000); err != nil {
		t.Fatalf("UseLiveInput() error = %v", err)
	}
	g.SetLiveRecording(true)
	g.setStatus(StatusOn)

	in := make([]float32, 64)
	for i := range in {
		in[i] = 0.25
	}

	out := newOut(1, 64)
	heard := false
	for range 100 {
		g.CopyInputSamples(in)
		g.Go(out, 64)
		for _, v := range out[0] {
			if math.IsNaN(float64(v)) || math.Abs(float64(v)) > 1 {
				t.Fatalf("live output %v out of range", v)
			}
			heard = heard || v != 0
		}
	}
	if !heard {
		t.Error("live input never reached the output")
	}
}

func TestGoDoesNotAllocate(t *testing.T) {
	g := newTestGranulator(t, func(c *Config) {
		c.MaxVoices = 32
		c.Channels = 2
	})
	if err := g.UseStaticBuffer(noise(4000)); err != nil {
		t.Fatal(err)
	}
	g.SetTranspositions([]float64{-5, 0, 3.5})
	g.SetDirection(DirectionRandom)
	g.setStatus(StatusOn)
	out := newOut(2, 256)

	allocs := testing.AllocsPerRun(100, func() {
		g.Go(out, 256)
	})
	if allocs != 0 {
		t.Errorf("Go allocates %v times per call, want 0", allocs)
	}
}

func BenchmarkGo(b *testing.B) {
	g := newTestGranulator(b, func(c *Config) {
		c.SamplingRate = 48000
		c.MaxVoices = 64
		c.Channels = 2
		c.TickSize = 256
	})
	g.SetWarnings(false)
	if err := g.UseStaticBuffer(noise(48000)); err != nil {
		b.Fatal(err)
	}
	g.SetTranspositions([]float64{-12, -5, 0, 7})
	g.setStatus(StatusOn)
	out := newOut(2, 256)

	b.ReportAllocs()
	for b.Loop() {
		g.Go(out, 256)
	}
}

// noise is a repeatable, non-zero test signal.
func noise(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(math.Sin(float64(i) * 0.37))
	}
	return s
}
