// SPDX-License-Identifier: EPL-2.0

// Package audio turns decoded files into sample buffers a granulator can
// read.
//
// Everything flows through the Source interface, a stream of interleaved
// float32 samples in [-1, 1]:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Close() error
//	}
//
// Decoders in the formats packages produce Sources; Resampler and MonoMixer
// wrap them.
//
// # Loading a buffer
//
// Grains read one mono channel at the engine rate. ToMono builds that
// buffer in one call:
//
//	src, _ := wav.Decoder{}.Decode(f)
//	samples, err := audio.ToMono(src, 48000, audio.DefaultBufSize)
//
// which is the same as chaining the pieces by hand:
//
//	mono := audio.NewMonoMixer(audio.NewResampler(src, 48000))
//	samples, err := audio.Collect(mono, 4096)
//
// # Decoder registry
//
// Registry picks a decoder by file extension:
//
//	reg := audio.NewRegistry()
//	reg.Register("wav", wav.Decoder{})
//	dec, ok := reg.Get(filepath.Ext(path))
//
// # End of stream
//
// ReadSamples returns io.EOF once the stream is done, possibly together with
// the last samples. Collect and ToMono swallow it.
package audio
