// SPDX-License-Identifier: EPL-2.0

// Package pcm adapts go-audio integer decoders to audio.Source.
package pcm

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// Reader is the part of the go-audio wav and aiff decoders a Source needs.
type Reader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source reads integer PCM and scales it to [-1, 1].
type Source struct {
	dec      Reader
	rate     int
	channels int
	scale    float32
	offset   int
	buf      *goaudio.IntBuffer
}

// NewSource wraps dec. Unsigned 8-bit data (WAV) is centred on zero.
func NewSource(dec Reader, rate, channels, bitDepth int, unsigned8 bool) *Source {
	s := &Source{
		dec:      dec,
		rate:     rate,
		channels: channels,
		scale:    1 / float32(int64(1)<<(bitDepth-1)),
	}
	if bitDepth == 8 && unsigned8 {
		s.offset = 128
	}
	return s
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) Close() error    { return nil }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	if s.buf == nil || cap(s.buf.Data) < want {
		s.buf = &goaudio.IntBuffer{
			Data:   make([]int, want),
			Format: s.dec.Format(),
		}
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("pcm: %w", err)
	}
	n -= n % s.channels

	for i, v := range s.buf.Data[:n] {
		dst[i] = float32(v-s.offset) * s.scale
	}

	if n == 0 || n < want {
		return n, io.EOF
	}
	return n, nil
}

// Seekable returns r as an io.ReadSeeker, reading it into memory when it
// can't seek on its own.
func Seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("pcm: buffering input: %w", err)
	}
	return bytes.NewReader(data), nil
}
