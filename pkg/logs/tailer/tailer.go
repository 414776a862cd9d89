// Package tailer implements the per-file reader described in spec.md §4.2,
// directly grounded on the teacher's
// pkg/logs/internal/tailers/file.Tailer: atomic offset fields, a
// stop/done channel pair for graceful shutdown, and a forwardContext/
// stopForward cancellation pair used to bound how long a rotated file's
// drain may block shutdown. The teacher splits reading (readForever) from
// decoding (a separate decoder goroutine fed by a channel); this Tailer
// folds line-splitting and parsing into the same read loop since spec.md
// resolves that Open Question by consolidating line splitting inside the
// Tailer (SPEC_FULL.md §9).
package tailer

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/flowbase/logcollector/pkg/logs/linebreak"
	"github.com/flowbase/logcollector/pkg/logs/message"
	"github.com/flowbase/logcollector/pkg/util/identity"
	"github.com/flowbase/logcollector/pkg/util/log"
)

const (
	defaultReadBufSize   = 16 * 1024
	defaultSleepDuration = 100 * time.Millisecond
	defaultMaxLineLen    = 256 * 1024
	defaultRotationDrain = 2 * time.Second
)

// ParseFunc converts one raw line into a NormalizedLog, or reports a parse
// failure (spec.md §4.3's Parser contract).
type ParseFunc func(raw []byte) (message.NormalizedLog, error)

// Sink receives NormalizedLog records. It is not told how many input bytes
// a record consumed; the Tailer reports that separately through its
// onAdvance callback, so the caller can advance the Checkpoint by
// precisely that amount (spec.md §4.2 step 5).
type Sink interface {
	Push(log message.NormalizedLog)
}

// Tailer reads one file from a starting offset, splits its bytes into
// lines, parses each line, and pushes the result to a Sink, advancing a
// checkpoint callback after each line.
type Tailer struct {
	id   identity.FileIdentity
	path string

	f       *os.File
	breaker *linebreak.Breaker
	parse   ParseFunc
	sink    Sink

	// onAdvance is called after every line is pushed, with the new total
	// byte offset into the file. Wired to the Auditor in production.
	onAdvance func(offset int64)

	lastReadOffset int64 // atomic
	bytesRead      int64 // atomic
	linesRead      int64 // atomic
	parseFailures  int64 // atomic
	isFinished     int32 // atomic
	didRotate      int32 // atomic

	sleepDuration time.Duration
	readBufSize   int

	stop chan struct{}
	done chan struct{}

	forwardCtx  context.Context
	stopForward context.CancelFunc
}

// New builds a Tailer for id/path. onAdvance is invoked synchronously after
// each line is pushed to sink, with the cumulative byte offset consumed.
func New(id identity.FileIdentity, path string, parse ParseFunc, sink Sink, onAdvance func(offset int64)) *Tailer {
	forwardCtx, stopForward := context.WithCancel(context.Background())
	return &Tailer{
		id:            id,
		path:          path,
		parse:         parse,
		sink:          sink,
		onAdvance:     onAdvance,
		sleepDuration: defaultSleepDuration,
		readBufSize:   defaultReadBufSize,
		stop:          make(chan struct{}, 1),
		done:          make(chan struct{}),
		forwardCtx:    forwardCtx,
		stopForward:   stopForward,
	}
}

// Start opens the file, seeks to offset, and begins reading in a dedicated
// goroutine.
func (t *Tailer) Start(offset int64) error {
	f, err := os.Open(t.path)
	if err != nil {
		return err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return err
	}
	t.f = f
	t.lastReadOffset = offset

	t.breaker = linebreak.NewBreaker(t.handleLine, defaultMaxLineLen)

	go t.readForever()
	return nil
}

// handleLine is the linebreak.Breaker outputFn: parse one complete line,
// push the result, and advance the checkpoint by the bytes it consumed.
func (t *Tailer) handleLine(content []byte, rawDataLen int) {
	atomic.AddInt64(&t.linesRead, 1)

	// Empty lines (a bare newline) still advance the offset but produce no
	// record, matching the teacher's "ignore empty lines once the offset
	// is updated" handling in forwardMessages.
	if len(content) > 0 {
		rec, err := t.parse(content)
		if err != nil {
			atomic.AddInt64(&t.parseFailures, 1)
			log.Warnw("tailer: parse failure, dropping line", "path", t.path, "error", err)
		} else {
			select {
			case <-t.forwardCtx.Done():
				return
			default:
				t.sink.Push(rec)
			}
		}
	}

	newOffset := atomic.AddInt64(&t.lastReadOffset, int64(rawDataLen))
	if t.onAdvance != nil {
		t.onAdvance(newOffset)
	}
}

// readForever is the Tailer's read loop (spec.md §4.2 "Reader algorithm"),
// grounded on the teacher's readForever: read, process, and on a stop
// signal, keep reading to the current EOF before exiting. A Tailer stopped
// after rotation instead exits after processing the last chunk read.
func (t *Tailer) readForever() {
	defer func() {
		t.f.Close()
		atomic.StoreInt32(&t.isFinished, 1)
		close(t.done)
		log.Infow("tailer: closed", "path", t.path,
			"bytes_read", atomic.LoadInt64(&t.bytesRead),
			"lines_read", atomic.LoadInt64(&t.linesRead),
			"parse_failures", atomic.LoadInt64(&t.parseFailures))
	}()

	buf := make([]byte, t.readBufSize)
	for {
		n, err := t.f.Read(buf)
		if n > 0 {
			atomic.AddInt64(&t.bytesRead, int64(n))
			t.breaker.Process(buf[:n])
		}
		if err != nil && err != io.EOF {
			log.Warnw("tailer: read error, exiting", "path", t.path, "error", err)
			return
		}

		select {
		case <-t.stop:
			if t.hasRotated() {
				if n != 0 {
					log.Warnw("tailer: stopped after rotation drain with remaining unread data", "path", t.path)
				}
				return
			}
			for n != 0 && err == nil {
				n, err = t.f.Read(buf)
				if n > 0 {
					atomic.AddInt64(&t.bytesRead, int64(n))
					t.breaker.Process(buf[:n])
				}
			}
			return
		default:
			if n == 0 {
				time.Sleep(t.sleepDuration)
			}
		}
	}
}

// Stop signals the Tailer to exit and blocks until it has finished
// flushing in-flight lines.
func (t *Tailer) Stop() {
	select {
	case t.stop <- struct{}{}:
	default:
	}
	<-t.done
}

// StopAfterRotation marks the Tailer as superseded by a new file at the
// same path, then allows it up to drain to finish reading to EOF before
// forcing a stop — bounding how long a stuck rotation drain can block
// shutdown (spec.md §4.2 "Rotation boundary").
func (t *Tailer) StopAfterRotation(drain time.Duration) {
	atomic.StoreInt32(&t.didRotate, 1)
	if drain <= 0 {
		drain = defaultRotationDrain
	}
	go func() {
		time.Sleep(drain)
		t.stopForward()
		select {
		case t.stop <- struct{}{}:
		default:
		}
	}()
}

func (t *Tailer) hasRotated() bool {
	return atomic.LoadInt32(&t.didRotate) != 0
}

// IsFinished reports whether the Tailer has flushed everything and exited.
func (t *Tailer) IsFinished() bool {
	return atomic.LoadInt32(&t.isFinished) != 0
}

// Offset returns the current byte offset the Tailer has consumed.
func (t *Tailer) Offset() int64 {
	return atomic.LoadInt64(&t.lastReadOffset)
}

// Done returns a channel closed once the Tailer has fully exited.
func (t *Tailer) Done() <-chan struct{} {
	return t.done
}
