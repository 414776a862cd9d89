// Package sender implements the Shipper described in spec.md §4.5,
// grounded directly on
// original_source/services/log-collector/src/shipper/shipper.rs: a small
// hand-off channel decouples producers (the pipeline) from a background
// worker that owns the single gRPC connection, reconnecting with
// exponential backoff and jitter whenever the stream drops.
package sender

import (
	"context"
	"errors"
	"io"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/flowbase/logcollector/pkg/config"
	"github.com/flowbase/logcollector/pkg/logs/embedderpb"
	"github.com/flowbase/logcollector/pkg/logs/message"
	"github.com/flowbase/logcollector/pkg/util/log"
)

// ErrQueueFull is returned by Send when the hand-off channel to the
// background worker is saturated (shipper.rs's ShipperError::QueueFull).
var ErrQueueFull = errors.New("sender: queue full")

// Shipper owns the sending side of the hand-off channel; run() owns the
// receiving side as a background worker, mirroring Shipper::new in
// shipper.rs spawning run_worker with the channel's two halves split
// across the struct and the goroutine.
type Shipper struct {
	cfg     config.ShipperConfig
	handoff chan *message.Batch
	done    chan struct{}
}

// New starts the background worker goroutine and returns a Shipper whose
// Send method is the only public surface the rest of the agent needs.
func New(cfg config.ShipperConfig, stopCh <-chan struct{}) *Shipper {
	s := &Shipper{
		cfg:     cfg,
		handoff: make(chan *message.Batch, 8),
		done:    make(chan struct{}),
	}
	go s.run(stopCh)
	return s
}

// Send hands a flushed batch to the background worker, non-blocking. It
// returns ErrQueueFull if the hand-off channel has no room, matching
// shipper.rs's send() mapping a full mpsc::Sender to ShipperError::QueueFull.
func (s *Shipper) Send(batch *message.Batch) error {
	select {
	case s.handoff <- batch:
		return nil
	default:
		return ErrQueueFull
	}
}

// Done is closed once the worker goroutine has exited.
func (s *Shipper) Done() <-chan struct{} {
	return s.done
}

// run is the background worker: connect (with retry), stream batches out,
// drain responses, and reconnect on any stream error. One iteration of the
// outer loop is one connection's lifetime, matching run_worker's outer
// `loop { match connect_with_retry ... }`.
func (s *Shipper) run(stopCh <-chan struct{}) {
	defer close(s.done)

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		conn, err := connectWithRetry(s.cfg, stopCh)
		if err != nil {
			// stopCh fired while waiting on backoff, or
			// max_reconnect_attempts was exhausted; the worker exits
			// either way.
			return
		}

		s.drive(conn, stopCh)
		conn.Close()

		select {
		case <-stopCh:
			return
		default:
		}
	}
}

// drive opens the bidirectional EmbedLog stream and multiplexes the
// hand-off channel against the response stream, the Go equivalent of
// run_worker's inner `tokio::select!` over rx.recv() and resp_rx.message().
func (s *Shipper) drive(conn *grpc.ClientConn, stopCh <-chan struct{}) {
	client := embedderpb.NewEmbedderClient(conn)

	connID := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := client.EmbedLog(ctx)
	if err != nil {
		log.Warnw("sender: failed to open EmbedLog stream", "conn_id", connID, "error", err)
		return
	}
	log.Infow("sender: embed stream established", "conn_id", connID, "addr", s.cfg.EmbedderTargetAddr)

	recvErrCh := make(chan error, 1)
	go s.recvLoop(stream, recvErrCh)

	for {
		select {
		case <-stopCh:
			s.drainHandoff(stream, connID)
			return
		case err := <-recvErrCh:
			if err != nil {
				log.Warnw("sender: response stream ended", "error", err)
			}
			return
		case batch, ok := <-s.handoff:
			if !ok {
				return
			}
			if err := s.sendBatch(stream, batch); err != nil {
				log.Warnw("sender: failed to send batch, reconnecting", "error", err)
				return
			}
		}
	}
}

// drainHandoff empties s.handoff on a best-effort basis before the stream
// closes (spec.md §4.5's "drain remaining batches from the handoff channel
// ... on a best-effort basis"). Without this, stopCh and a pending
// s.handoff send are two equally-eligible select arms above; Go's select
// has no case priority, so the stopCh arm can win in the same instant a
// caller's Send() has already reported success by placing a batch in the
// channel, silently stranding it there forever. A non-blocking drain loop
// after the fact catches exactly that batch.
func (s *Shipper) drainHandoff(stream embedderpb.Embedder_EmbedLogClient, connID string) {
	for {
		select {
		case batch, ok := <-s.handoff:
			if !ok {
				return
			}
			if err := s.sendBatch(stream, batch); err != nil {
				log.Warnw("sender: failed to drain batch on shutdown", "conn_id", connID, "error", err)
				return
			}
		default:
			return
		}
	}
}

// sendBatch forwards every record in batch over stream, one EmbedRequest
// per record, matching shipper.rs's `for log in batch.queue { req_tx.send(log) }`.
func (s *Shipper) sendBatch(stream embedderpb.Embedder_EmbedLogClient, batch *message.Batch) error {
	for i := range batch.Records {
		req := &embedderpb.EmbedRequest{Log: toWire(&batch.Records[i])}
		if err := stream.Send(req); err != nil {
			return err
		}
	}
	return nil
}

// recvLoop continuously drains EmbedResponse messages so the stream's
// receive side never backs up (spec.md §9's resolved Open Question: the
// receive loop runs even though responses are only logged today).
func (s *Shipper) recvLoop(stream embedderpb.Embedder_EmbedLogClient, errCh chan<- error) {
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			errCh <- nil
			return
		}
		if err != nil {
			errCh <- err
			return
		}
		handleEmbedResponse(resp)
	}
}

// handleEmbedResponse is an intentional hook, not a stub: shipper.rs's own
// handle_embed_response is a TODO with the same signature, and nothing in
// spec.md assigns the embedder's acknowledgement a behavior beyond logging.
func handleEmbedResponse(resp *embedderpb.EmbedResponse) {
	if !resp.GetAccepted() {
		log.Warnw("sender: embedder rejected batch", "detail", resp.GetDetail())
	}
}

// toWire converts the internal record shape to the generated message type
// sent over the wire (SPEC_FULL.md §6's fixed schema).
func toWire(rec *message.NormalizedLog) *embedderpb.NormalizedLog {
	out := &embedderpb.NormalizedLog{
		Timestamp: &embedderpb.Timestamp{
			Seconds: rec.Timestamp.Unix(),
			Nanos:   int32(rec.Timestamp.Nanosecond()),
		},
		Level:   rec.Level,
		Message: rec.Message,
		RawLine: rec.RawLine,
	}
	if !rec.Metadata.IsZero() {
		out.Metadata = &embedderpb.Metadata{Stream: rec.Metadata.Stream, Flag: rec.Metadata.Flag}
	}
	return out
}

// connectWithRetry dials the embedder, retrying with exponential backoff
// and jitter until it succeeds, max_reconnect_attempts is exhausted, or
// stopCh fires — grounded on shipper.rs's connect_with_retry.
func connectWithRetry(cfg config.ShipperConfig, stopCh <-chan struct{}) (*grpc.ClientConn, error) {
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     durationMs(cfg.InitialRetryDelayMs, 500*time.Millisecond),
		RandomizationFactor: cfg.RetryJitter,
		Multiplier:          multiplierOrDefault(cfg.BackoffFactor),
		MaxInterval:         durationMs(cfg.MaxRetryDelayMs, 30*time.Second),
		MaxElapsedTime:      0, // unlimited; attempt ceiling enforced separately below
		Clock:               backoff.SystemClock,
	}
	bo.Reset()

	var b backoff.BackOff = bo
	if cfg.MaxReconnectAttempts > 0 {
		b = backoff.WithMaxRetries(bo, cfg.MaxReconnectAttempts)
	}

	var conn *grpc.ClientConn
	operation := func() error {
		dialCtx, cancel := context.WithTimeout(context.Background(), durationMs(cfg.ConnectionTimeoutMs, 5*time.Second))
		defer cancel()

		c, err := grpc.DialContext(dialCtx, cfg.EmbedderTargetAddr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithBlock(),
		)
		if err != nil {
			log.Warnw("sender: connect attempt failed", "addr", cfg.EmbedderTargetAddr, "error", err)
			return err
		}
		conn = c
		return nil
	}

	notify := func(err error, delay time.Duration) {
		log.Infow("sender: retrying connection", "delay", delay, "error", err)
	}

	stopAware := backoff.WithContext(b, stopContext(stopCh))
	if err := backoff.RetryNotify(operation, stopAware, notify); err != nil {
		return nil, err
	}
	return conn, nil
}

// stopContext turns stopCh into a context so backoff.WithContext aborts
// retry attempts as soon as shutdown is triggered.
func stopContext(stopCh <-chan struct{}) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}

func durationMs(ms uint64, fallback time.Duration) time.Duration {
	if ms == 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func multiplierOrDefault(f float64) float64 {
	if f <= 0 {
		return 2.0
	}
	return f
}
