package tailer

import (
	"github.com/flowbase/logcollector/pkg/logs/auditor"
	"github.com/flowbase/logcollector/pkg/logs/watcher"
	"github.com/flowbase/logcollector/pkg/util/identity"
	"github.com/flowbase/logcollector/pkg/util/log"
)

// Manager owns the FileIdentity -> Tailer mapping and translates
// WatcherEvents into Tailer lifecycle commands (spec.md §4.2).
type Manager struct {
	checkpoint *auditor.Auditor
	parse      ParseFunc
	sink       Sink

	handles map[identity.FileIdentity]*Tailer
}

// NewManager builds a Manager. checkpoint supplies starting offsets for
// discovered files and records advances as Tailers consume them.
func NewManager(checkpoint *auditor.Auditor, parse ParseFunc, sink Sink) *Manager {
	return &Manager{
		checkpoint: checkpoint,
		parse:      parse,
		sink:       sink,
		handles:    make(map[identity.FileIdentity]*Tailer),
	}
}

// Handle runs until events is closed or stopCh fires, dispatching each
// watcher.Event to the matching Tailer lifecycle action (spec.md §4.2
// "Manager event handling").
func (m *Manager) Handle(events <-chan watcher.Event, stopCh <-chan struct{}) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handleEvent(ev)
		case <-stopCh:
			m.shutdown()
			return
		}
	}
}

func (m *Manager) handleEvent(ev watcher.Event) {
	switch ev.Kind {
	case watcher.FileDiscovered:
		if _, exists := m.handles[ev.ID]; exists {
			return
		}
		m.spawn(ev.ID, ev.Path)

	case watcher.FileRemoved:
		t, ok := m.handles[ev.ID]
		if !ok {
			return
		}
		delete(m.handles, ev.ID)
		t.Stop()
		if m.checkpoint != nil {
			m.checkpoint.Forget(ev.ID)
		}

	case watcher.FileRotated:
		if old, ok := m.handles[ev.OldID]; ok {
			delete(m.handles, ev.OldID)
			old.StopAfterRotation(defaultRotationDrain)
		}
		m.spawn(ev.ID, ev.Path)
	}
}

// spawn starts a Tailer for id/path, resuming from the checkpointed offset
// if one exists under this identity (spec.md §4.2: "spawn Tailer with
// offset from Checkpoint (or 0)").
func (m *Manager) spawn(id identity.FileIdentity, path string) {
	var offset int64
	if m.checkpoint != nil {
		if entry, ok := m.checkpoint.Lookup(id); ok {
			offset = entry.Offset
		}
	}

	t := New(id, path, m.parse, m.sink, func(newOffset int64) {
		if m.checkpoint != nil {
			m.checkpoint.Update(id, path, newOffset)
		}
	})
	if err := t.Start(offset); err != nil {
		log.Warnw("tailer manager: failed to start tailer", "path", path, "error", err)
		return
	}
	m.handles[id] = t
}

// shutdown stops every active Tailer, draining each to its current EOF
// before the process shuts down (spec.md §5 shutdown ordering step 2).
func (m *Manager) shutdown() {
	for id, t := range m.handles {
		t.Stop()
		delete(m.handles, id)
	}
}

// activeCount reports how many Tailers are currently running.
func (m *Manager) activeCount() int {
	return len(m.handles)
}
