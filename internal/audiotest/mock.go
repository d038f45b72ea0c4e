// SPDX-License-Identifier: EPL-2.0

// Package audiotest has synthetic sources for tests. They satisfy
// audio.Source without importing it.
package audiotest

import (
	"errors"
	"io"
	"math"
)

// ErrBroken is returned by a source built with FailAfter.
var ErrBroken = errors.New("audiotest: broken source")

// Source generates frames from a waveform function.
type Source struct {
	rate     int
	channels int
	frames   int
	pos      int
	chunk    int
	failAt   int
	closed   bool
	wave     func(frame, channel int) float32
}

// New returns a source of frames frames computed by wave.
func New(rate, channels, frames int, wave func(frame, channel int) float32) *Source {
	return &Source{
		rate:     rate,
		channels: channels,
		frames:   frames,
		failAt:   -1,
		wave:     wave,
	}
}

// Silent produces zeros.
func Silent(rate, channels, frames int) *Source {
	return New(rate, channels, frames, func(int, int) float32 { return 0 })
}

// Constant produces v on every channel.
func Constant(rate, channels, frames int, v float32) *Source {
	return New(rate, channels, frames, func(int, int) float32 { return v })
}

// Sine produces a sine at freq Hz on every channel.
func Sine(rate, channels, frames int, freq float64) *Source {
	return New(rate, channels, frames, func(f, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * freq * float64(f) / float64(rate)))
	})
}

// Ramp produces the frame index on channel 0, its negative on channel 1 and
// so on, which makes reordering easy to spot.
func Ramp(rate, channels, frames int) *Source {
	return New(rate, channels, frames, func(f, c int) float32 {
		if c%2 == 1 {
			return -float32(f)
		}
		return float32(f)
	})
}

// Chunked makes every read return at most n frames.
func (s *Source) Chunked(n int) *Source {
	s.chunk = n
	return s
}

// FailAfter makes reads fail with ErrBroken once n frames were produced.
func (s *Source) FailAfter(n int) *Source {
	s.failAt = n
	return s
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.channels }

func (s *Source) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Source) Closed() bool { return s.closed }

// Rewind starts the stream over.
func (s *Source) Rewind() { s.pos = 0 }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.failAt >= 0 && s.pos >= s.failAt {
		return 0, ErrBroken
	}
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/s.channels, s.frames-s.pos)
	if s.chunk > 0 {
		n = min(n, s.chunk)
	}
	if s.failAt >= 0 {
		n = min(n, s.failAt-s.pos)
	}

	for f := range n {
		for c := range s.channels {
			dst[f*s.channels+c] = s.wave(s.pos+f, c)
		}
	}
	s.pos += n

	if s.pos >= s.frames {
		return n * s.channels, io.EOF
	}
	return n * s.channels, nil
}
