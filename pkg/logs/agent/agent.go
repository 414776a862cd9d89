// Package agent is the top-level supervisor: it constructs the Watcher,
// Tailer Manager, Buffer, Shipper, and Pipeline, wires them together, and
// enforces the shutdown ordering spec.md §5 requires. Grounded on
// DataDog-datadog-log-agent/pkg/logagent/logsagent.go's Start(), which
// builds each component in dependency order and calls .Start() on each —
// generalized here into a single Agent value so cmd/logcollectoragent can
// own its lifetime explicitly instead of a bare package-level function.
package agent

import (
	"fmt"

	"github.com/flowbase/logcollector/pkg/config"
	"github.com/flowbase/logcollector/pkg/logs/auditor"
	"github.com/flowbase/logcollector/pkg/logs/buffer"
	"github.com/flowbase/logcollector/pkg/logs/message"
	"github.com/flowbase/logcollector/pkg/logs/parser"
	"github.com/flowbase/logcollector/pkg/logs/pipeline"
	"github.com/flowbase/logcollector/pkg/logs/sender"
	"github.com/flowbase/logcollector/pkg/logs/tailer"
	"github.com/flowbase/logcollector/pkg/logs/watcher"
	"github.com/flowbase/logcollector/pkg/util/log"
	"github.com/flowbase/logcollector/pkg/util/shutdown"
)

// Agent owns every long-running component and the channels connecting
// them.
type Agent struct {
	checkpoint *auditor.Auditor
	buf        *buffer.Buffer
	ship       *sender.Shipper
	pipe       *pipeline.Pipeline
	watch      *watcher.Watcher
	manager    *tailer.Manager

	shutdown *shutdown.Broadcast
	events   chan watcher.Event

	watcherDone  chan struct{}
	managerDone  chan struct{}
	pipelineDone chan struct{}
}

// sinkAdapter satisfies tailer.Sink by pushing into the Buffer, using the
// agent's shutdown signal as Push's cancellation channel so a Tailer
// blocked under OverflowBlock unblocks the instant shutdown begins. Push
// fails here when shutdown cancels such a blocked push (ErrShuttingDown),
// or if overflow_policy is unknown (already rejected at config load,
// spec.md §7); either failure is logged rather than propagated, and the
// record is dropped — the Tailer's Sink contract has no error
// return, matching the teacher's own forwardMessages "push and move on".
type sinkAdapter struct {
	buf    *buffer.Buffer
	stopCh <-chan struct{}
}

func (s sinkAdapter) Push(rec message.NormalizedLog) {
	if err := s.buf.Push(rec, s.stopCh); err != nil {
		log.Warnw("agent: dropping record, buffer push failed", "error", err)
	}
}

// New constructs every component from cfg but starts nothing yet.
func New(cfg *config.Config) (*Agent, error) {
	sd := shutdown.New()

	var ckpt *auditor.Auditor
	if cfg.Watcher.Enabled {
		ckpt = auditor.New(cfg.Watcher.CheckpointPath)
		ckpt.Load()
	}

	buf, err := buffer.New(cfg.Buffer)
	if err != nil {
		return nil, fmt.Errorf("agent: build buffer: %w", err)
	}

	var ship *sender.Shipper
	var pipe *pipeline.Pipeline
	if cfg.General.EnableNetworkMode {
		ship = sender.New(cfg.Shipper, sd.Subscribe())
		pipe = pipeline.New(buf, ship)
	}

	a := &Agent{
		checkpoint:   ckpt,
		buf:          buf,
		ship:         ship,
		pipe:         pipe,
		shutdown:     sd,
		events:       make(chan watcher.Event, 64),
		watcherDone:  make(chan struct{}),
		managerDone:  make(chan struct{}),
		pipelineDone: make(chan struct{}),
	}

	if cfg.Watcher.Enabled {
		a.watch = watcher.New(cfg.Watcher, ckpt, a.events)
		a.manager = tailer.NewManager(ckpt, parser.Parse, sinkAdapter{buf: buf, stopCh: sd.Subscribe()})
	}

	return a, nil
}

// Run starts every enabled component and returns immediately; the
// components themselves run until Stop triggers the shared shutdown
// signal.
func (a *Agent) Run() {
	if a.checkpoint != nil {
		go a.checkpoint.Run(a.shutdown.Subscribe())
	}
	if a.watch != nil {
		go func() {
			a.watch.Run(a.shutdown.Subscribe())
			close(a.watcherDone)
		}()
	} else {
		close(a.watcherDone)
	}
	if a.manager != nil {
		go func() {
			a.manager.Handle(a.events, a.shutdown.Subscribe())
			close(a.managerDone)
		}()
	} else {
		close(a.managerDone)
	}
	if a.pipe != nil {
		go func() {
			a.pipe.Run(a.shutdown.Subscribe())
			close(a.pipelineDone)
		}()
	} else {
		close(a.pipelineDone)
	}
}

// Stop triggers the shutdown ordering in spec.md §5: stop the Watcher,
// drain the Tailers, flush the Buffer, drain the Shipper, release
// handles. Every component already watches the same broadcast signal, so
// Stop's job is to wait for each stage to actually finish before treating
// the next as safe to assume quiescent.
func (a *Agent) Stop() {
	a.shutdown.Trigger()

	<-a.watcherDone
	<-a.managerDone
	<-a.pipelineDone
	if a.ship != nil {
		<-a.ship.Done()
	}
	if a.checkpoint != nil {
		if err := a.checkpoint.Flush(); err != nil {
			log.Warnw("agent: final checkpoint flush failed", "error", err)
		}
	}
}
