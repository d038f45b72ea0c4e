// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	gowav "github.com/go-audio/wav"

	"github.com/ik5/audgrain/audio"
	"github.com/ik5/audgrain/formats/internal/pcm"
)

const formatPCM = 1

// Decoder reads integer PCM WAV files of 8, 16, 24 or 32 bits.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := pcm.Seekable(r)
	if err != nil {
		return nil, err
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	if dec.WavAudioFormat != formatPCM {
		return nil, fmt.Errorf("format %d: %w", dec.WavAudioFormat, ErrUnsupportedFormat)
	}

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%d bits: %w", dec.BitDepth, ErrUnsupportedBitDepth)
	}
	if dec.NumChans == 0 {
		return nil, ErrNoChannels
	}

	return pcm.NewSource(dec, int(dec.SampleRate), int(dec.NumChans), int(dec.BitDepth), true), nil
}
