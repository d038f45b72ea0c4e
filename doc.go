// SPDX-License-Identifier: EPL-2.0

// Package audgrain is a real-time granular synthesizer.
//
// A granulator plays many short, overlapping excerpts of a sample buffer,
// called grains, each with its own transposition, length, start point,
// delay and output channel, and mixes them into any number of channels. The
// buffer is either a decoded file or a circular recording of live input.
//
// # Packages
//
//   - granular: the engine. Granulator renders grains, Engine lets other
//     goroutines change it while an audio callback runs it.
//   - window: the ramp shapes grains fade in and out with.
//   - audio and formats/...: decoding WAV, MP3, Ogg Vorbis and AIFF into
//     mono buffers at the engine rate.
//   - store: named buffers, including "msNNN" names for live input.
//   - control: JSON parameter files with hot reload.
//   - cmd/granulate: render to a file, play, or process live input.
//
// # Quick start
//
// Granulate runs the whole pipeline offline:
//
//	f, _ := os.Open("voice.wav")
//	src, _ := wav.Decoder{}.Decode(f)
//
//	cfg := granular.DefaultConfig()
//	out, err := audgrain.Granulate(src, cfg, 5000, func(g *granular.Granulator) {
//	    g.SetTranspositions([]float64{-12, 0, 7})
//	    g.SetDensity(70)
//	})
//
//	w, _ := os.Create("grains.wav")
//	err = wav.Encode(w, 44100, 16, out)
//
// For real-time use build a granular.Engine and call Process from the audio
// callback; cmd/granulate shows both oto and PortAudio hosts.
package audgrain
