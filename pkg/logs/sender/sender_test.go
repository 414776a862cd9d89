package sender

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/flowbase/logcollector/pkg/config"
	"github.com/flowbase/logcollector/pkg/logs/embedderpb"
	"github.com/flowbase/logcollector/pkg/logs/message"
)

// fakeEmbedder accepts every request and echoes an EmbedResponse, enough to
// exercise sendBatch/recvLoop without needing a real embedder process.
type fakeEmbedder struct {
	embedderpb.UnimplementedEmbedderServer
	received chan *embedderpb.EmbedRequest
}

func (f *fakeEmbedder) EmbedLog(stream embedderpb.Embedder_EmbedLogServer) error {
	for {
		req, err := stream.Recv()
		if err != nil {
			return nil
		}
		f.received <- req
		if err := stream.Send(&embedderpb.EmbedResponse{Accepted: true}); err != nil {
			return err
		}
	}
}

func startFakeEmbedder(t *testing.T) (*bufconn.Listener, *fakeEmbedder, func()) {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	fe := &fakeEmbedder{received: make(chan *embedderpb.EmbedRequest, 16)}
	embedderpb.RegisterEmbedderServer(srv, fe)
	go srv.Serve(lis)
	return lis, fe, srv.Stop
}

func TestSendBatchDeliversRecords(t *testing.T) {
	lis, fe, stop := startFakeEmbedder(t)
	defer stop()

	conn, err := grpc.Dial("bufnet",
		grpc.WithContextDialer(func(_ context.Context, _ string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithInsecure(),
	)
	require.NoError(t, err)
	defer conn.Close()

	s := &Shipper{cfg: config.ShipperConfig{EmbedderTargetAddr: "bufnet"}, handoff: make(chan *message.Batch, 1), done: make(chan struct{})}

	stopCh := make(chan struct{})
	go func() {
		s.drive(conn, stopCh)
		close(s.done)
	}()

	batch := &message.Batch{ID: 1, Records: []message.NormalizedLog{{Message: "hello", RawLine: "hello"}}}
	require.NoError(t, s.Send(batch))

	select {
	case req := <-fe.received:
		require.Equal(t, "hello", req.GetLog().GetMessage())
	case <-time.After(2 * time.Second):
		t.Fatal("fake embedder never received the batch")
	}

	close(stopCh)
}

func TestSendReturnsQueueFullWhenSaturated(t *testing.T) {
	s := &Shipper{cfg: config.ShipperConfig{}, handoff: make(chan *message.Batch, 1), done: make(chan struct{})}
	require.NoError(t, s.Send(&message.Batch{ID: 1}))
	require.ErrorIs(t, s.Send(&message.Batch{ID: 2}), ErrQueueFull)
}

// TestDriveDrainsHandoffOnShutdown exercises the race where a batch is
// already sitting in s.handoff at the exact moment stopCh fires: closing
// stopCh before drive's loop ever runs forces its first select to have
// both the stopCh and handoff cases ready simultaneously, so whichever one
// Go's runtime happens to pick, the batch must still reach the embedder —
// either via the ordinary per-iteration send or via drive's post-stopCh
// drain.
func TestDriveDrainsHandoffOnShutdown(t *testing.T) {
	lis, fe, stop := startFakeEmbedder(t)
	defer stop()

	conn, err := grpc.Dial("bufnet",
		grpc.WithContextDialer(func(_ context.Context, _ string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithInsecure(),
	)
	require.NoError(t, err)
	defer conn.Close()

	s := &Shipper{cfg: config.ShipperConfig{EmbedderTargetAddr: "bufnet"}, handoff: make(chan *message.Batch, 1), done: make(chan struct{})}

	batch := &message.Batch{ID: 1, Records: []message.NormalizedLog{{Message: "hello", RawLine: "hello"}}}
	require.NoError(t, s.Send(batch))

	stopCh := make(chan struct{})
	close(stopCh)

	done := make(chan struct{})
	go func() {
		s.drive(conn, stopCh)
		close(done)
	}()

	select {
	case req := <-fe.received:
		require.Equal(t, "hello", req.GetLog().GetMessage())
	case <-time.After(2 * time.Second):
		t.Fatal("batch already queued at shutdown time was never drained to the embedder")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drive did not return after stopCh fired")
	}
}
