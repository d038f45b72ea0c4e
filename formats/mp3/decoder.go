// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audgrain/audio"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	channels      = 2
	bytesPerFrame = 2 * channels
)

// mp3Reader is the part of gomp3.Decoder the source uses.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec  mp3Reader
	rate int
	buf  []byte
	// bytes of a frame split across two reads
	keep int
}

func (s *source) SampleRate() int { return s.rate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	need := len(dst) / channels * bytesPerFrame
	if need == 0 {
		return 0, nil
	}
	if cap(s.buf) < need {
		grown := make([]byte, need)
		copy(grown, s.buf[:s.keep])
		s.buf = grown
	}
	s.buf = s.buf[:need]

	n, err := s.dec.Read(s.buf[s.keep:])
	n += s.keep
	whole := n - n%bytesPerFrame

	samples := whole / 2
	for i := range samples {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(s.buf[2*i:]))) / 32768
	}
	s.keep = copy(s.buf, s.buf[whole:n])

	switch {
	case errors.Is(err, io.EOF):
		return samples, io.EOF
	case err != nil:
		return samples, fmt.Errorf("mp3: %w", err)
	}
	return samples, nil
}

// Decoder reads MPEG-1/2 layer III streams. Output is always stereo; mono
// files come out with both channels equal.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	return &source{
		dec:  dec,
		rate: dec.SampleRate(),
		buf:  make([]byte, 8192),
	}, nil
}
