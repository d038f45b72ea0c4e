// SPDX-License-Identifier: EPL-2.0

package audgrain

import (
	"fmt"
	"math"

	"github.com/ik5/audgrain/audio"
	"github.com/ik5/audgrain/granular"
	"github.com/ik5/audgrain/utils"
)

// Granulate is the one-call pipeline: src is read to the end, converted to
// mono at cfg.SamplingRate, and granulated for ms milliseconds. setup, when
// not nil, runs on the granulator before it is switched on.
//
// The result is planar, one slice per cfg.Channels. The fade in is part of
// it, the fade out is not.
func Granulate(src audio.Source, cfg granular.Config, ms float64, setup func(*granular.Granulator)) ([][]float32, error) {
	g, err := granular.New(cfg)
	if err != nil {
		return nil, err
	}

	samples, err := audio.ToMono(src, int(math.Round(cfg.SamplingRate)), audio.DefaultBufSize)
	if err != nil {
		return nil, fmt.Errorf("granulate: %w", err)
	}
	if err := g.UseStaticBuffer(samples); err != nil {
		return nil, fmt.Errorf("granulate: %w", err)
	}

	if setup != nil {
		setup(g)
	}
	g.On()

	return Render(g, utils.MsToSamples(cfg.SamplingRate, ms)), nil
}

// Render runs g for frames samples and returns what it produced, one slice
// per output channel.
func Render(g *granular.Granulator, frames int) [][]float32 {
	out := make([][]float32, g.Channels())
	for c := range out {
		out[c] = make([]float32, frames)
	}
	g.Go(out, frames)
	return out
}

// Interleave packs planar channels into one frame-ordered slice. Channels
// shorter than the first are padded with silence.
func Interleave(planar [][]float32) []float32 {
	if len(planar) == 0 {
		return nil
	}

	ch := len(planar)
	frames := len(planar[0])
	out := make([]float32, frames*ch)
	for c, samples := range planar {
		for i := range min(frames, len(samples)) {
			out[i*ch+c] = samples[i]
		}
	}
	return out
}

// Interleave16 is Interleave with conversion to 16-bit PCM, the layout most
// playback devices take.
func Interleave16(planar [][]float32) []int16 {
	if len(planar) == 0 {
		return nil
	}

	ch := len(planar)
	frames := len(planar[0])
	out := make([]int16, frames*ch)
	for c, samples := range planar {
		for i := range min(frames, len(samples)) {
			out[i*ch+c] = utils.Float32ToInt16(samples[i])
		}
	}
	return out
}
