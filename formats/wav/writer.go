// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/audgrain/utils"
)

// Writer streams planar float32 audio into an integer PCM WAV file. The
// header is completed on Close, which is why it needs to seek.
type Writer struct {
	enc      *gowav.Encoder
	channels int
	bitDepth int
	buf      *goaudio.IntBuffer
	frames   int
}

// NewWriter starts a WAV file with the given layout. bitDepth is 8, 16, 24
// or 32.
func NewWriter(w io.WriteSeeker, rate, channels, bitDepth int) (*Writer, error) {
	if channels < 1 {
		return nil, ErrNoChannels
	}
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%d bits: %w", bitDepth, ErrUnsupportedBitDepth)
	}

	return &Writer{
		enc:      gowav.NewEncoder(w, rate, bitDepth, channels, formatPCM),
		channels: channels,
		bitDepth: bitDepth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write appends one slice per channel, all the same length. Samples are
// clipped to [-1, 1].
func (w *Writer) Write(planar [][]float32) error {
	if len(planar) != w.channels {
		return fmt.Errorf("got %d, want %d: %w", len(planar), w.channels, ErrChannelMismatch)
	}

	n := len(planar[0])
	for _, ch := range planar[1:] {
		n = min(n, len(ch))
	}

	size := n * w.channels
	if cap(w.buf.Data) < size {
		w.buf.Data = make([]int, size)
	}
	w.buf.Data = w.buf.Data[:size]

	// 8-bit WAV is unsigned
	offset := 0
	if w.bitDepth == 8 {
		offset = 128
	}

	for f := range n {
		for c, ch := range planar {
			w.buf.Data[f*w.channels+c] = utils.Float32ToInt(ch[f], w.bitDepth) + offset
		}
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	w.frames += n

	return nil
}

// Frames is how many frames have been written so far.
func (w *Writer) Frames() int { return w.frames }

// Close finishes the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}

// Encode writes a complete WAV file in one call.
func Encode(w io.WriteSeeker, rate, bitDepth int, planar [][]float32) error {
	wr, err := NewWriter(w, rate, len(planar), bitDepth)
	if err != nil {
		return err
	}
	if err := wr.Write(planar); err != nil {
		return err
	}
	return wr.Close()
}
