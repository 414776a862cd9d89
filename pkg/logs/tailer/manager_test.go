package tailer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowbase/logcollector/pkg/logs/auditor"
	"github.com/flowbase/logcollector/pkg/logs/watcher"
	"github.com/flowbase/logcollector/pkg/util/identity"
)

func TestManagerSpawnsAndRemovesOnDiscoveryAndRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	id, err := identity.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	aud := auditor.New(filepath.Join(dir, "checkpoint.json"))
	sink := newFakeSink()
	mgr := NewManager(aud, echoParse, sink)

	events := make(chan watcher.Event, 10)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		mgr.Handle(events, stop)
		close(done)
	}()

	events <- watcher.Event{Kind: watcher.FileDiscovered, ID: id, Path: path}
	waitForLog(t, sink.ch)

	// Give the Tailer a moment to record its offset, then check the spawn
	// and the removal through the mutex-guarded Checkpoint rather than the
	// manager's internal map, which the test goroutine cannot read safely.
	time.Sleep(20 * time.Millisecond)
	if _, ok := aud.Lookup(id); !ok {
		t.Fatal("no checkpoint entry after FileDiscovered; tailer was not spawned")
	}

	events <- watcher.Event{Kind: watcher.FileRemoved, ID: id, Path: path}
	time.Sleep(50 * time.Millisecond)
	if _, ok := aud.Lookup(id); ok {
		t.Fatal("checkpoint entry still present after FileRemoved")
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Handle did not return after stop")
	}
}

func TestManagerResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	id, err := identity.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	aud := auditor.New(filepath.Join(dir, "checkpoint.json"))
	aud.Update(id, path, int64(len("one\n")))

	sink := newFakeSink()
	mgr := NewManager(aud, echoParse, sink)

	events := make(chan watcher.Event, 10)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		mgr.Handle(events, stop)
		close(done)
	}()

	events <- watcher.Event{Kind: watcher.FileDiscovered, ID: id, Path: path}
	rec := waitForLog(t, sink.ch)
	if rec.Message != "two" {
		t.Fatalf("got %q, want two (resumed past already-checkpointed line)", rec.Message)
	}

	close(stop)
	<-done
}
