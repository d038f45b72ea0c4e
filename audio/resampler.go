// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audgrain/utils"
)

// Resampler converts src to another sample rate with four point cubic
// interpolation. Channel layout is kept. When downsampling a one-pole
// low-pass runs on the input to tame aliasing.
type Resampler struct {
	src      Source
	rate     int
	step     float64 // source frames per output frame
	channels int

	// hist holds frames t-1, t0, t+1 and t+2 back to back. real marks the
	// ones read from src; the rest repeat an edge frame.
	hist []float32
	real [4]bool
	frac float64

	lowpass []float32
	primed  bool
	eof     bool
}

const lowpassAlpha = 0.5

// NewResampler returns a Resampler producing rate Hz.
func NewResampler(src Source, rate int) *Resampler {
	ch := src.Channels()
	r := &Resampler{
		src:      src,
		rate:     rate,
		step:     float64(src.SampleRate()) / float64(rate),
		channels: ch,
		hist:     make([]float32, 4*ch),
	}
	if r.step > 1 {
		r.lowpass = make([]float32, ch)
	}
	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("resample: %w", err)
	}
	return nil
}

func (r *Resampler) frame(i int) []float32 {
	return r.hist[i*r.channels : (i+1)*r.channels]
}

// pull reads exactly one frame into dst. A trailing partial frame is
// dropped.
func (r *Resampler) pull(dst []float32) (bool, error) {
	if r.eof {
		return false, nil
	}

	got := 0
	for got < len(dst) {
		n, err := r.src.ReadSamples(dst[got:])
		got += n
		if errors.Is(err, io.EOF) {
			if got < len(dst) {
				r.eof = true
			}
			break
		}
		if err != nil {
			return false, fmt.Errorf("resample: %w", err)
		}
		if n == 0 {
			return false, io.ErrNoProgress
		}
	}

	if got < len(dst) {
		return false, nil
	}

	if r.lowpass != nil {
		for c, x := range dst {
			y := lowpassAlpha*x + (1-lowpassAlpha)*r.lowpass[c]
			dst[c] = y
			r.lowpass[c] = y
		}
	}
	return true, nil
}

// fill loads slot i from src, or repeats slot i-1 once src is dry.
func (r *Resampler) fill(i int) error {
	ok, err := r.pull(r.frame(i))
	if err != nil {
		return err
	}
	r.real[i] = ok
	if !ok && i > 0 {
		copy(r.frame(i), r.frame(i-1))
	}
	return nil
}

func (r *Resampler) prime() error {
	r.primed = true

	if r.lowpass != nil {
		// start the filter on the first frame instead of silence
		r.lowpass = nil
		if err := r.fill(1); err != nil {
			return err
		}
		r.lowpass = append([]float32(nil), r.frame(1)...)
	} else if err := r.fill(1); err != nil {
		return err
	}

	copy(r.frame(0), r.frame(1))
	for i := 2; i < 4; i++ {
		if err := r.fill(i); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resampler) shift() error {
	copy(r.hist, r.hist[r.channels:])
	copy(r.real[:], r.real[1:])
	return r.fill(3)
}

// ReadSamples produces frames at the target rate. len(dst) must be a
// multiple of Channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	ch := r.channels
	if len(dst)%ch != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	frames := len(dst) / ch
	w := 0
	for w < frames {
		for r.frac >= 1 {
			r.frac--
			if err := r.shift(); err != nil {
				return w * ch, err
			}
		}

		if !r.real[1] {
			return w * ch, io.EOF
		}

		y0, y1, y2, y3 := r.frame(0), r.frame(1), r.frame(2), r.frame(3)
		x := float32(r.frac)
		out := dst[w*ch : (w+1)*ch]
		for c := range out {
			out[c] = utils.CubicInterpolate(y0[c], y1[c], y2[c], y3[c], x)
		}

		w++
		r.frac += r.step
	}

	return w * ch, nil
}
