// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/ik5/audgrain/granular"
)

const keyHelp = "space on/off, +/- density, ]/[ amplitude, s smooth, d delays, r record, p print, q quit"

const (
	densityStep = 10.0
	ampStep     = 1.25
	ctrlC       = 3
)

// keyCommand maps a key press to a command for the engine. Fields snapshots
// taken by 'p' are sent on fields, never blocking the audio path.
func keyCommand(b byte, fields chan<- logrus.Fields) (cmd granular.Command, quit bool) {
	switch b {
	case 'q', ctrlC:
		return nil, true
	case ' ':
		return (*granular.Granulator).Toggle, false
	case '+', '=':
		return func(g *granular.Granulator) {
			g.SetDensity(min(g.Density()+densityStep, 100))
		}, false
	case '-':
		return func(g *granular.Granulator) {
			g.SetDensity(max(g.Density()-densityStep, 0))
		}, false
	case ']':
		return func(g *granular.Granulator) {
			_, target := g.GrainAmp()
			g.SetGrainAmp(min(max(target, 0.01)*ampStep, 100))
		}, false
	case '[':
		return func(g *granular.Granulator) {
			_, target := g.GrainAmp()
			g.SetGrainAmp(target / ampStep)
		}, false
	case 's':
		return (*granular.Granulator).SmoothMode, false
	case 'd':
		return (*granular.Granulator).DoGrainDelays, false
	case 'r':
		return func(g *granular.Granulator) {
			g.SetLiveRecording(!g.LiveRecording())
		}, false
	case 'p':
		return func(g *granular.Granulator) {
			select {
			case fields <- g.Fields():
			default:
			}
		}, false
	}
	return nil, false
}

// crlfWriter keeps log lines readable while the terminal is raw.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// interact drives e from the keyboard until q or ctx is done. Without a
// terminal it only waits for ctx.
func interact(ctx context.Context, e *granular.Engine, log *logrus.Logger) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		<-ctx.Done()
		return nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	out := log.Out
	log.SetOutput(crlfWriter{w: out})
	defer log.SetOutput(out)

	log.Info(keyHelp)

	// the reader stays blocked on stdin after we return; the process is
	// about to exit anyway
	keys := make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(buf); err != nil {
				close(keys)
				return
			}
			keys <- buf[0]
		}
	}()

	fields := make(chan logrus.Fields, 1)
	for {
		select {
		case b, ok := <-keys:
			if !ok {
				return nil
			}
			cmd, quit := keyCommand(b, fields)
			if quit {
				return nil
			}
			if cmd != nil {
				// a full queue is already logged by the engine
				_ = e.Do(cmd)
			}
		case f := <-fields:
			log.WithFields(f).Info("state")
		case <-ctx.Done():
			return nil
		}
	}
}
