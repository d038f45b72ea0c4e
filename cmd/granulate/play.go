// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/ik5/audgrain/granular"
	"github.com/ik5/audgrain/utils"
)

// pcmReader turns engine ticks into the signed 16-bit little endian stream
// oto pulls from.
type pcmReader struct {
	e     *granular.Engine
	out   [][]float32
	views [][]float32
}

func newPCMReader(e *granular.Engine, tick int) *pcmReader {
	ch := e.Granulator().Channels()
	r := &pcmReader{
		e:     e,
		out:   make([][]float32, ch),
		views: make([][]float32, ch),
	}
	for c := range r.out {
		r.out[c] = make([]float32, tick)
	}
	return r
}

func (r *pcmReader) Read(p []byte) (int, error) {
	ch := len(r.out)
	frames := min(len(p)/(2*ch), len(r.out[0]))
	if frames == 0 {
		return 0, nil
	}

	for c := range r.out {
		r.views[c] = r.out[c][:frames]
	}
	r.e.Process(nil, r.views)

	for i := range frames {
		for c := range ch {
			v := utils.Float32ToInt16(r.views[c][i])
			binary.LittleEndian.PutUint16(p[(i*ch+c)*2:], uint16(v))
		}
	}
	return frames * ch * 2, nil
}

func play(ctx context.Context, e *granular.Engine, o *options, log *logrus.Logger) error {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   o.rate,
		ChannelCount: o.channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("can't open output: %w", err)
	}
	<-ready

	player := otoCtx.NewPlayer(newPCMReader(e, o.tick))
	defer player.Close()

	if err := e.On(); err != nil {
		return err
	}
	player.Play()
	log.Info("playing, press q to quit")

	return interact(ctx, e, log)
}
