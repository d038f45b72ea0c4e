// SPDX-License-Identifier: EPL-2.0

package granular

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ik5/audgrain/utils"
)

// DefaultQueueSize is the command queue length used when none is given.
const DefaultQueueSize = 256

// Command changes a Granulator. It runs on the audio goroutine, at the start
// of a tick, and must not block.
type Command func(*Granulator)

// Engine lets control goroutines drive a Granulator that is owned by an audio
// callback. Commands are queued and applied at the next tick boundary.
type Engine struct {
	g    *Granulator
	cmds chan Command
}

// NewEngine builds a Granulator from cfg and wraps it. queue <= 0 uses
// DefaultQueueSize.
func NewEngine(cfg Config, queue int) (*Engine, error) {
	g, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if queue <= 0 {
		queue = DefaultQueueSize
	}

	return &Engine{
		g:    g,
		cmds: make(chan Command, queue),
	}, nil
}

// Granulator gives direct access to the wrapped engine. Only use it before
// the audio callback starts, or from inside a Command.
func (e *Engine) Granulator() *Granulator { return e.g }

// Do queues cmd without blocking. A full queue drops the command.
func (e *Engine) Do(cmd Command) error {
	select {
	case e.cmds <- cmd:
		return nil
	default:
		e.g.warn("command queue full, dropping command", logrus.Fields{"queue": cap(e.cmds)})
		return ErrQueueFull
	}
}

// Status is safe to call from any goroutine.
func (e *Engine) Status() Status { return e.g.Status() }

// On queues a fade in.
func (e *Engine) On() error { return e.Do((*Granulator).On) }

// Off queues a fade out.
func (e *Engine) Off() error { return e.Do((*Granulator).Off) }

// Toggle queues an on/off switch.
func (e *Engine) Toggle() error { return e.Do((*Granulator).Toggle) }

// SetLiveBufferSize allocates the new live buffer on the calling goroutine
// and hands it to the audio path, then waits for the audio path's verdict.
// It needs Process to be running to return anything but ctx's error. When
// ctx's error is returned the buffer was not swapped and never will be.
func (e *Engine) SetLiveBufferSize(ctx context.Context, ms float64) error {
	ms = max(ms, MinLiveBufferMS)
	buf := make([]float32, utils.MsToSamples(e.g.rate, ms))
	res := make(chan error, 1)

	// whoever flips taken first decides: the audio path swaps, the caller
	// gives up
	var taken atomic.Bool
	err := e.Do(func(g *Granulator) {
		if !taken.CompareAndSwap(false, true) {
			return
		}
		res <- g.swapRing(buf, ms)
	})
	if err != nil {
		return err
	}

	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		if taken.CompareAndSwap(false, true) {
			return ctx.Err()
		}
		return <-res
	}
}

// Process runs one host callback: queued commands first, then live input is
// recorded, then len(out[0]) samples are rendered. in may be nil.
func (e *Engine) Process(in []float32, out [][]float32) {
	e.drain()

	g := e.g
	if in != nil && g.src.live && g.src.recording {
		g.CopyInputSamples(in)
	}

	n := 0
	if len(out) > 0 {
		n = len(out[0])
	}
	g.Go(out, n)
}

// drain runs the commands queued so far. Commands queued while draining
// wait for the next tick.
func (e *Engine) drain() {
	for range len(e.cmds) {
		cmd := <-e.cmds
		cmd(e.g)
	}
}
