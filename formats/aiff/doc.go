// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files through github.com/go-audio/aiff.
//
//	src, err := aiff.Decoder{}.Decode(file)
//	samples, err := audio.ToMono(src, 48000, audio.DefaultBufSize)
//
// Uncompressed 8, 16, 24 and 32 bit PCM is supported; AIFF-C compressed
// variants are not. Readers that can't seek are buffered in memory first.
package aiff
