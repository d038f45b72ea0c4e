// SPDX-License-Identifier: EPL-2.0

package control

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ik5/audgrain/granular"
	"github.com/ik5/audgrain/store"
)

// Controller feeds parameter documents to an Engine. Buffer names are
// looked up in the store on the caller's goroutine so the audio path never
// waits on it.
type Controller struct {
	engine *granular.Engine
	store  *store.Store
	log    logrus.FieldLogger
}

// NewController returns a Controller for e. st may be nil when documents
// never name a buffer.
func NewController(e *granular.Engine, st *store.Store, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		engine: e,
		store:  st,
		log:    log.WithField("component", "control"),
	}
}

// Send queues p on the engine. A buffer that can't be found fails the whole
// document; one the granulator rejects is logged from the audio path and
// the rest of p still applies. Ramp settings sent with "on": false wait for
// the fade out to end; sent to a running engine they are dropped with a
// warning.
func (c *Controller) Send(p *Params) error {
	var src *store.Source
	if p.Buffer != nil {
		if c.store == nil {
			return fmt.Errorf("buffer %q: %w", *p.Buffer, store.ErrUnknownBuffer)
		}
		s, err := c.store.Lookup(*p.Buffer)
		if err != nil {
			return err
		}
		src = &s
	}

	var wait granular.Command
	if p.needsOff() {
		wait = c.waitForOff(p)
	}

	log := c.log
	return c.engine.Do(func(g *granular.Granulator) {
		if src != nil {
			if err := src.Apply(g); err != nil {
				log.WithError(err).WithField("buffer", src.Name).Warn("can't switch buffer")
			}
		}
		if p.Apply(g) {
			c.requeue(wait)
		}
	})
}

// waitForOff returns a Command that applies p's held settings once the
// engine is off, re-queueing itself while the fade out runs.
func (c *Controller) waitForOff(p *Params) granular.Command {
	var wait granular.Command
	wait = func(g *granular.Granulator) {
		switch g.Status() {
		case granular.StatusOff:
			p.ApplyHeld(g)
		case granular.StatusStopping:
			c.requeue(wait)
		default:
			c.log.WithField("status", g.Status()).Warn("ramp settings need the engine off, dropping them")
		}
	}
	return wait
}

func (c *Controller) requeue(cmd granular.Command) {
	if err := c.engine.Do(cmd); err != nil {
		c.log.WithError(err).Warn("can't wait for the engine to stop, dropping ramp settings")
	}
}

// Run watches the parameter file at path and sends every new version until
// ctx is done. Errors are logged, never fatal.
func (c *Controller) Run(ctx context.Context, path string) error {
	params := make(chan *Params)
	errs := make(chan error)

	if err := Watch(ctx, path, params, errs); err != nil {
		return err
	}

	for {
		select {
		case p := <-params:
			if err := c.Send(p); err != nil {
				c.log.WithError(err).Error("can't apply params")
				continue
			}
			c.log.WithField("path", path).Info("params reloaded")
		case err := <-errs:
			c.log.WithError(err).Error("params watcher")
		case <-ctx.Done():
			return nil
		}
	}
}
