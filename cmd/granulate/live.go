// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/ik5/audgrain/granular"
)

// live records the default input device into the live buffer and plays the
// grains on the default output, all in PortAudio's callback.
func live(ctx context.Context, e *granular.Engine, o *options, log *logrus.Logger) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("can't init portaudio: %w", err)
	}
	// ignore Terminate error
	defer portaudio.Terminate()

	process := func(in, out [][]float32) {
		e.Process(in[0], out)
	}

	stream, err := portaudio.OpenDefaultStream(1, o.channels, float64(o.rate), o.tick, process)
	if err != nil {
		return fmt.Errorf("can't open default stream: %w", err)
	}
	// ignore Close error
	defer stream.Close()

	if err := e.Do(func(g *granular.Granulator) { g.SetLiveRecording(true) }); err != nil {
		return err
	}
	if err := e.On(); err != nil {
		return err
	}

	if err := stream.Start(); err != nil {
		return fmt.Errorf("can't start stream: %w", err)
	}
	log.Info("listening, press q to quit")

	err = interact(ctx, e, log)
	if stopErr := stream.Stop(); stopErr != nil && err == nil {
		err = fmt.Errorf("can't stop stream: %w", stopErr)
	}
	return err
}
