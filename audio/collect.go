// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// DefaultBufSize is the read size used when none is given.
const DefaultBufSize = 4096

// Collect reads src to the end and returns everything it produced. The
// samples keep src's rate and channel layout.
func Collect(src Source, bufSize int) ([]float32, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufSize
	}
	if ch := src.Channels(); ch > 1 && bufSize%ch != 0 {
		bufSize += ch - bufSize%ch
	}

	var out []float32
	buf := make([]float32, bufSize)

	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)

		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("collect: %w", err)
		}
	}
}

// ToMono reads src to the end, converted to rate Hz and averaged down to a
// single channel.
func ToMono(src Source, rate, bufSize int) ([]float32, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%d: %w", rate, ErrInvalidRate)
	}

	if src.SampleRate() != rate {
		src = NewResampler(src, rate)
	}
	if src.Channels() != 1 {
		src = NewMonoMixer(src)
	}

	return Collect(src, bufSize)
}
