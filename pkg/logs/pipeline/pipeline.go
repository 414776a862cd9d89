// Package pipeline wires the Buffer/Batcher to the Shipper, grounded on
// main.rs's comment describing the intended data flow ("watcher.rs/
// tailer.rs -> parser.rs -> log_buffer_batcher.rs -> shipper.rs") and on
// DataDog-datadog-log-agent/pkg/pipeline's role of owning the periodic
// flush-and-forward loop between the two.
package pipeline

import (
	"time"

	"github.com/flowbase/logcollector/pkg/logs/buffer"
	"github.com/flowbase/logcollector/pkg/logs/message"
	"github.com/flowbase/logcollector/pkg/util/log"
)

// batchSender is the slice of *sender.Shipper's API Pipeline depends on,
// narrowed to a local interface so tests can substitute a stub instead of
// standing up a real gRPC connection.
type batchSender interface {
	Send(batch *message.Batch) error
}

// flushTickInterval is how often MaybeFlush is given a chance to evaluate
// flush_policy; short enough that a batch_size-triggered flush is noticed
// promptly without checking on every single Push.
const flushTickInterval = 250 * time.Millisecond

// retryBackoff is how long Pipeline waits before retrying a Send that
// failed with sender.ErrQueueFull.
const retryBackoff = 100 * time.Millisecond

// Pipeline periodically flushes buf and forwards the resulting batches to
// ship, retrying on backpressure so a saturated handoff channel never
// silently drops a batch that already left the Buffer's queue (spec.md
// §4.5: "the Buffer is the authoritative backlog, not the Shipper" — new
// pushes feel the backpressure via the Buffer's own overflow_policy while
// this loop holds onto the one batch it's currently retrying).
type Pipeline struct {
	buf  *buffer.Buffer
	ship batchSender
}

// New builds a Pipeline over an already-constructed Buffer and Shipper.
func New(buf *buffer.Buffer, ship batchSender) *Pipeline {
	return &Pipeline{buf: buf, ship: ship}
}

// Run drives the flush/forward loop until stopCh fires, then performs the
// shutdown flush (spec.md §5 step 3: "flush the Buffer completely") and
// forwards whatever it returns before returning itself.
func (p *Pipeline) Run(stopCh <-chan struct{}) {
	ticker := time.NewTicker(flushTickInterval)
	defer ticker.Stop()

	flushed := p.buf.Flushed()
	for {
		select {
		case <-stopCh:
			p.drainOnShutdown()
			return
		case <-ticker.C:
			p.tick(stopCh)
		case batch := <-flushed:
			p.forward(batch, stopCh)
		}
	}
}

func (p *Pipeline) tick(stopCh <-chan struct{}) {
	batch, err := p.buf.MaybeFlush()
	if err != nil {
		log.Errorw("pipeline: flush failed", "error", err)
		return
	}
	if batch == nil {
		return
	}
	p.forward(batch, stopCh)
}

// forward retries Send until it succeeds or stopCh fires, per the
// backpressure contract above.
func (p *Pipeline) forward(batch *message.Batch, stopCh <-chan struct{}) {
	for {
		err := p.ship.Send(batch)
		if err == nil {
			return
		}
		log.Warnw("pipeline: shipper queue full, retrying", "batch_id", batch.ID)
		select {
		case <-stopCh:
			return
		case <-time.After(retryBackoff):
		}
	}
}

// drainOnShutdown forwards any batches Push already flushed but Run had
// not yet picked up, then performs the Buffer's own terminal flush,
// forwarding that too — both on a best-effort, unbounded-retry basis (no
// stopCh: shutdown already triggered this call, so there is nothing left
// to cancel against).
func (p *Pipeline) drainOnShutdown() {
	flushed := p.buf.Flushed()
drainLoop:
	for {
		select {
		case batch := <-flushed:
			p.forward(batch, nil)
		default:
			break drainLoop
		}
	}

	batch, err := p.buf.Shutdown()
	if err != nil {
		log.Errorw("pipeline: shutdown flush failed", "error", err)
		return
	}
	if batch == nil {
		return
	}
	for {
		if err := p.ship.Send(batch); err == nil {
			return
		}
		time.Sleep(retryBackoff)
	}
}
