// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG layer III files with github.com/hajimehoshi/go-mp3.
//
// The decoder always emits interleaved stereo at the file's sample rate.
// Feed it through audio.ToMono before handing it to a granulator:
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	samples, err := audio.ToMono(src, 48000, audio.DefaultBufSize)
package mp3
