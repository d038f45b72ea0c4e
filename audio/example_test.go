// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"fmt"

	"github.com/ik5/audgrain/audio"
	"github.com/ik5/audgrain/internal/audiotest"
)

func ExampleToMono() {
	// one second of stereo at 44.1kHz
	src := audiotest.Constant(44100, 2, 44100, 0.5)

	samples, err := audio.ToMono(src, 8000, audio.DefaultBufSize)
	if err != nil {
		panic(err)
	}

	fmt.Printf("%d samples of %.1f\n", len(samples), samples[100])
	// Output: 8000 samples of 0.5
}

func ExampleRegistry() {
	reg := audio.NewRegistry()
	reg.Register("wav", nil)
	reg.Register(".MP3", nil)

	_, ok := reg.Get("mp3")
	fmt.Println(reg.Extensions(), ok)
	// Output: [mp3 wav] true
}
