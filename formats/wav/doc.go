// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes integer PCM WAV files through
// github.com/go-audio/wav.
//
// # Decoding
//
//	src, err := wav.Decoder{}.Decode(file)
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// 8, 16, 24 and 32 bit files are accepted and scaled to [-1, 1]. Readers
// that can't seek are buffered in memory first.
//
// # Encoding
//
// Writer takes one slice per channel, the layout a granulator renders
// into, and interleaves it on the way out:
//
//	w, err := wav.NewWriter(file, 48000, 2, 16)
//	for ... {
//	    err = w.Write(out)
//	}
//	err = w.Close()
//
// Encode does the same for a buffer that is already complete.
package wav
