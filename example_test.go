// SPDX-License-Identifier: EPL-2.0

package audgrain_test

import (
	"fmt"

	"github.com/ik5/audgrain"
	"github.com/ik5/audgrain/granular"
	"github.com/ik5/audgrain/internal/audiotest"
)

func ExampleGranulate() {
	// two seconds of a 220 Hz stereo tone at 22.05 kHz
	src := audiotest.Sine(22050, 2, 44100, 220)

	cfg := granular.DefaultConfig()
	cfg.SamplingRate = 11025
	cfg.Seed = 1
	cfg.Warnings = false

	out, err := audgrain.Granulate(src, cfg, 1000, func(g *granular.Granulator) {
		g.SetTranspositions([]float64{-12, 0, 7})
		g.SetDensity(75)
	})
	if err != nil {
		panic(err)
	}

	fmt.Println(len(out), "channels of", len(out[0]), "frames")
	// Output: 2 channels of 11025 frames
}

func ExampleInterleave16() {
	left := []float32{1, 0}
	right := []float32{0, -1}

	fmt.Println(audgrain.Interleave16([][]float32{left, right}))
	// Output: [32767 0 0 -32767]
}
