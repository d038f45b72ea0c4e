// SPDX-License-Identifier: EPL-2.0

// Command granulate runs the granular engine over a sound file or live
// input. By default it renders to a WAV file; -play sends the result to the
// sound card and -live granulates the default input device.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"

	"github.com/ik5/audgrain/control"
	"github.com/ik5/audgrain/granular"
	"github.com/ik5/audgrain/store"
)

type options struct {
	in       string
	buffer   string
	out      string
	params   string
	watch    bool
	play     bool
	live     bool
	rate     int
	channels int
	voices   int
	tick     int
	bits     int
	ms       float64
	seed     int64
	verbose  bool
}

func parseFlags(args []string) (*options, error) {
	var o options
	fs := flag.NewFlagSet("granulate", flag.ContinueOnError)
	fs.StringVar(&o.in, "in", "", "sound file to granulate (wav, mp3, ogg, aiff)")
	fs.StringVar(&o.buffer, "buffer", "", `buffer name; "msNNN" granulates the last NNN ms of live input`)
	fs.StringVar(&o.out, "out", "grains.wav", "WAV file written when neither -play nor -live is given")
	fs.StringVar(&o.params, "params", "", "JSON parameter file, created with defaults if not found")
	fs.BoolVar(&o.watch, "watch", false, "reapply -params whenever it changes")
	fs.BoolVar(&o.play, "play", false, "play through the default output device")
	fs.BoolVar(&o.live, "live", false, "granulate the default input device")
	fs.IntVar(&o.rate, "rate", 44100, "sampling rate")
	fs.IntVar(&o.channels, "channels", 2, "output channels")
	fs.IntVar(&o.voices, "voices", 10, "voice slots")
	fs.IntVar(&o.tick, "tick", 256, "samples per processing tick")
	fs.IntVar(&o.bits, "bits", 16, "bit depth of the rendered file")
	fs.Float64Var(&o.ms, "ms", 5000, "length of the rendered file")
	fs.Int64Var(&o.seed, "seed", 0, "random seed, 0 picks one")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch {
	case o.play && o.live:
		return nil, fmt.Errorf("-play and -live can't be combined")
	case o.buffer == "" && o.in != "":
		o.buffer = "in"
	case o.buffer == "" && o.live:
		o.buffer = "ms2000"
	case o.buffer == "":
		return nil, fmt.Errorf("nothing to granulate: give -in or -buffer")
	}

	var err error
	if o.out, err = homedir.Expand(o.out); err != nil {
		return nil, err
	}
	if o.params, err = homedir.Expand(o.params); err != nil {
		return nil, err
	}
	return &o, nil
}

func (o *options) config(log logrus.FieldLogger) granular.Config {
	cfg := granular.DefaultConfig()
	cfg.SamplingRate = float64(o.rate)
	cfg.Channels = o.channels
	cfg.MaxVoices = o.voices
	cfg.TickSize = o.tick
	cfg.Logger = log
	if o.seed != 0 {
		cfg.Seed = o.seed
	}
	return cfg
}

// setup builds the engine and points it at its buffer. The initial
// parameters are queued, so they land with the first tick.
func setup(o *options, log *logrus.Logger) (*granular.Engine, *control.Controller, error) {
	e, err := granular.NewEngine(o.config(log), 0)
	if err != nil {
		return nil, nil, err
	}

	st := store.New(o.rate, store.WithLogger(log))
	if o.in != "" {
		if err := st.Load(o.buffer, o.in); err != nil {
			return nil, nil, err
		}
	}
	if err := st.Attach(e.Granulator(), o.buffer); err != nil {
		return nil, nil, err
	}

	ctl := control.NewController(e, st, log)
	if o.params != "" {
		p, err := control.ReadParams(o.params)
		if err != nil {
			return nil, nil, err
		}
		if err := ctl.Send(p); err != nil {
			return nil, nil, err
		}
	}
	return e, ctl, nil
}

func run(ctx context.Context, o *options, log *logrus.Logger) error {
	e, ctl, err := setup(o, log)
	if err != nil {
		return err
	}

	if o.watch && o.params != "" {
		go func() {
			if err := ctl.Run(ctx, o.params); err != nil {
				log.WithError(err).Error("can't watch params")
			}
		}()
	}

	switch {
	case o.play:
		return play(ctx, e, o, log)
	case o.live:
		return live(ctx, e, o, log)
	}
	return render(e, o, log)
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

	log := logrus.New()
	if o.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, log); err != nil {
		log.Fatalf("granulate: %v", err)
	}
}
