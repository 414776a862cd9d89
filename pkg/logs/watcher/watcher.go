// Package watcher discovers log files in a directory and announces their
// lifecycle (spec.md §4.1), grounded on justin4957/logflow-anomaly-detector's
// fsnotify-based Tailer (internal/stream/log_stream.go): a watcher goroutine
// multiplexing fsnotify events, a stop channel, and a ticker-driven fallback
// in a single select loop, generalized here from tailing one file to
// discovering many.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/flowbase/logcollector/pkg/config"
	"github.com/flowbase/logcollector/pkg/logs/auditor"
	"github.com/flowbase/logcollector/pkg/util/identity"
	"github.com/flowbase/logcollector/pkg/util/log"
)

// EventKind discriminates the kinds of WatcherEvent (spec.md §4.1's event
// translation table).
type EventKind int

const (
	FileDiscovered EventKind = iota
	FileRotated
	FileRemoved
)

// Event is a single observation the Watcher emits to its sink, in
// observation order.
type Event struct {
	Kind EventKind
	ID   identity.FileIdentity
	Path string

	// OldID/OldPath are set only for FileRotated.
	OldID   identity.FileIdentity
	OldPath string
}

var defaultExtensions = map[string]bool{".log": true, ".txt": true}

// Watcher enumerates config.WatcherConfig.LogDir and emits Events to sink
// as files are discovered, rotated, or removed.
type Watcher struct {
	cfg        config.WatcherConfig
	checkpoint *auditor.Auditor
	sink       chan<- Event

	// active tracks the identity currently believed to occupy each path,
	// so rescans and fsnotify events agree on what's already known.
	active map[string]identity.FileIdentity
}

// New builds a Watcher. checkpoint may be nil if no prior offsets should be
// carried forward.
func New(cfg config.WatcherConfig, checkpoint *auditor.Auditor, sink chan<- Event) *Watcher {
	return &Watcher{
		cfg:        cfg,
		checkpoint: checkpoint,
		sink:       sink,
		active:     make(map[string]identity.FileIdentity),
	}
}

func (w *Watcher) accepted(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return defaultExtensions[filepath.Ext(name)]
}

// bootstrap enumerates the directory once, emitting FileDiscovered for
// every accepted file (spec.md §4.1 "Bootstrap").
func (w *Watcher) bootstrap() {
	entries, err := os.ReadDir(w.cfg.LogDir)
	if err != nil {
		log.Warnw("watcher: bootstrap readdir failed", "dir", w.cfg.LogDir, "error", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !w.accepted(e.Name()) {
			continue
		}
		w.discover(filepath.Join(w.cfg.LogDir, e.Name()))
	}
}

// discover resolves path's identity and emits FileDiscovered if it is not
// already in the active set. The first time a path is seen this run, it is
// also checked against the Checkpoint: a path recorded there under a
// different identity means the file at that path was replaced while the
// agent wasn't watching (spec.md §4.1: "if the path matches but identity
// differs, treat as a new discovery ... and log a rotation-like warning").
func (w *Watcher) discover(path string) {
	id, err := identity.Resolve(path)
	if err != nil {
		log.Warnw("watcher: failed to resolve identity", "path", path, "error", err)
		return
	}
	if existing, ok := w.active[path]; ok {
		if existing == id {
			return
		}
	} else if w.checkpoint != nil {
		if priorID, ok := w.checkpoint.LookupPath(path); ok && priorID != id {
			log.Warnw("watcher: path previously held a different identity, treating as a new discovery",
				"path", path, "prior_identity", priorID.String(), "new_identity", id.String())
		}
	}
	w.active[path] = id
	w.sink <- Event{Kind: FileDiscovered, ID: id, Path: path}
}

// rescan re-enumerates the directory, emitting FileDiscovered for any
// accepted file whose identity is not in the current active set (spec.md
// §4.1 "Periodic rescan" — the recovery path for missed native events).
func (w *Watcher) rescan() {
	entries, err := os.ReadDir(w.cfg.LogDir)
	if err != nil {
		log.Warnw("watcher: rescan readdir failed", "dir", w.cfg.LogDir, "error", err)
		return
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() || !w.accepted(e.Name()) {
			continue
		}
		path := filepath.Join(w.cfg.LogDir, e.Name())
		seen[path] = true
		w.discover(path)
	}
	for path, id := range w.active {
		if !seen[path] {
			delete(w.active, path)
			w.sink <- Event{Kind: FileRemoved, ID: id, Path: path}
		}
	}
}

func (w *Watcher) handleRemoveOrRename(name string) {
	id, ok := w.active[name]
	if !ok {
		// Best-effort lookup failed (spec.md: "may be unresolved if
		// unlinked-and-gone"); nothing to announce removal for.
		return
	}
	delete(w.active, name)

	// Give the replacement a moment to land before treating this purely as
	// a removal, matching the teacher's settle-then-reopen idiom.
	time.Sleep(50 * time.Millisecond)
	newID, err := identity.Resolve(name)
	if err != nil {
		w.sink <- Event{Kind: FileRemoved, ID: id, Path: name}
		return
	}
	w.active[name] = newID
	w.sink <- Event{Kind: FileRotated, ID: newID, Path: name, OldID: id, OldPath: name}
}

// Run bootstraps, then watches w.cfg.LogDir until stopCh closes, per
// spec.md's "run(shutdown, cancel) -> runs until either signal fires".
func (w *Watcher) Run(stopCh <-chan struct{}) {
	w.bootstrap()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Errorw("watcher: failed to create fsnotify watcher, relying on rescan only", "error", err)
		w.runPollOnly(stopCh)
		return
	}
	defer fsw.Close()

	if err := fsw.Add(w.cfg.LogDir); err != nil {
		log.Errorw("watcher: failed to watch directory, relying on rescan only", "dir", w.cfg.LogDir, "error", err)
	}

	interval := time.Duration(w.cfg.PollIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.accepted(filepath.Base(ev.Name)) {
				continue
			}
			switch {
			case ev.Op&fsnotify.Create == fsnotify.Create:
				w.discover(ev.Name)
			case ev.Op&fsnotify.Remove == fsnotify.Remove || ev.Op&fsnotify.Rename == fsnotify.Rename:
				w.handleRemoveOrRename(ev.Name)
			}
			// Write/Chmod: ignored, the Tailer reads on its own cadence
			// (spec.md §4.1's event translation table).

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Warnw("watcher: notification backend error", "error", err)

		case <-ticker.C:
			w.rescan()
		}
	}
}

// runPollOnly is the fallback loop used when fsnotify itself cannot be
// initialized; the rescan ticker alone still guarantees forward progress
// (spec.md §4.1 "Failure model").
func (w *Watcher) runPollOnly(stopCh <-chan struct{}) {
	interval := time.Duration(w.cfg.PollIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			w.rescan()
		}
	}
}
