package agent

import (
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"

	"github.com/flowbase/logcollector/pkg/config"
	"github.com/flowbase/logcollector/pkg/logs/embedderpb"
	"github.com/flowbase/logcollector/pkg/logs/message"
)

// fakeEmbedder accepts every request and echoes acceptance, enough to
// exercise the Shipper/Pipeline pair end to end without a real embedder
// process.
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

func TestAgentRunStopWithoutWatcherOrShipper(t *testing.T) {
	cfg := &config.Config{
		Buffer: config.BufferConfig{
			CapacityOption: config.CapacityUnbounded,
			BatchSize:      10,
			BatchTimeoutMs: 1000,
			Durability:     config.DurabilityConfig{Type: config.DurabilityInMemory},
			OverflowPolicy: config.OverflowDropNewest,
			FlushPolicy:    config.FlushHybrid,
			DrainPolicy:    config.DrainAll,
		},
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.Run()

	done := make(chan struct{})
	go func() {
		a.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return; a disabled watcher/shipper should shut down immediately")
	}
}

func TestAgentRunStopWithWatcherEnabled(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Buffer: config.BufferConfig{
			CapacityOption: config.CapacityUnbounded,
			BatchSize:      10,
			BatchTimeoutMs: 1000,
			Durability:     config.DurabilityConfig{Type: config.DurabilityInMemory},
			OverflowPolicy: config.OverflowDropNewest,
			FlushPolicy:    config.FlushHybrid,
			DrainPolicy:    config.DrainAll,
		},
		Watcher: config.WatcherConfig{
			Enabled:        true,
			LogDir:         dir,
			CheckpointPath: dir + "/checkpoint.json",
			PollIntervalMs: 50,
		},
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.Run()

	done := make(chan struct{})
	go func() {
		a.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return with watcher enabled")
	}
}

// TestAgentRunStopWithNetworkModeEnabled exercises the Shipper/Pipeline
// pair together: a pushed record must reach the fake embedder, and Stop
// must still complete the full shutdown ordering with the Shipper in play.
func TestAgentRunStopWithNetworkModeEnabled(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpc.NewServer()
	fe := &fakeEmbedder{received: make(chan *embedderpb.EmbedRequest, 16)}
	embedderpb.RegisterEmbedderServer(srv, fe)
	go srv.Serve(lis)
	defer srv.Stop()

	cfg := &config.Config{
		General: config.GeneralConfig{EnableNetworkMode: true},
		Buffer: config.BufferConfig{
			CapacityOption: config.CapacityUnbounded,
			BatchSize:      1,
			BatchTimeoutMs: 1000,
			Durability:     config.DurabilityConfig{Type: config.DurabilityInMemory},
			OverflowPolicy: config.OverflowDropNewest,
			FlushPolicy:    config.FlushHybrid,
			DrainPolicy:    config.DrainAll,
		},
		Shipper: config.ShipperConfig{
			EmbedderTargetAddr:  lis.Addr().String(),
			ConnectionTimeoutMs: 2000,
		},
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.Run()

	if err := a.buf.Push(message.NormalizedLog{Message: "hi"}, nil); err != nil {
		t.Fatalf("Push: %v", err)
	}

	select {
	case req := <-fe.received:
		if req.GetLog().GetMessage() != "hi" {
			t.Fatalf("received message = %q, want %q", req.GetLog().GetMessage(), "hi")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("embedder never received the pushed record")
	}

	done := make(chan struct{})
	go func() {
		a.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return with network mode enabled")
	}
}
