// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ik5/audgrain/formats/wav"
	"github.com/ik5/audgrain/granular"
	"github.com/ik5/audgrain/utils"
)

// render writes o.ms of output to o.out, then lets the fade out finish so
// the file doesn't end in a click.
func render(e *granular.Engine, o *options, log logrus.FieldLogger) error {
	f, err := os.Create(o.out)
	if err != nil {
		return fmt.Errorf("can't create output: %w", err)
	}
	defer f.Close()

	w, err := wav.NewWriter(f, o.rate, o.channels, o.bits)
	if err != nil {
		return err
	}

	frames, err := renderTo(w, e, utils.MsToSamples(float64(o.rate), o.ms), o.tick)
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"path":   o.out,
		"frames": frames,
		"ms":     utils.SamplesToMs(float64(o.rate), frames),
	}).Info("rendered")
	return nil
}

type planarWriter interface {
	Write(planar [][]float32) error
}

// renderTo runs e for frames samples plus its fade out, tick by tick, and
// returns how many frames were written.
func renderTo(w planarWriter, e *granular.Engine, frames, tick int) (int, error) {
	g := e.Granulator()
	out := make([][]float32, g.Channels())
	for c := range out {
		out[c] = make([]float32, tick)
	}
	views := make([][]float32, len(out))

	if err := e.On(); err != nil {
		return 0, err
	}

	written := 0
	step := func(n int) error {
		for c := range out {
			views[c] = out[c][:n]
		}
		e.Process(nil, views)
		written += n
		return w.Write(views)
	}

	for written < frames {
		if err := step(min(tick, frames-written)); err != nil {
			return written, err
		}
	}

	if err := e.Off(); err != nil {
		return written, err
	}
	// the fade lasts one ramp; a stop from a half finished fade in is shorter
	for range g.Ramps().Len()/tick + 2 {
		if err := step(tick); err != nil {
			return written, err
		}
		if e.Status() == granular.StatusOff {
			break
		}
	}
	return written, nil
}
