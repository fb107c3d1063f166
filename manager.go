package videoframe

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrStreamNotFound is returned by ReleaseStream when path has no open
// Stream registered against it.
var ErrStreamNotFound = errors.New("videoframe: stream not found")

// Manager is a reference-counted directory of open Streams keyed by path.
// Repeated GetStream calls for the same path return the same *Stream and
// bump its reference count; ReleaseStream decrements it and closes the
// Stream once it reaches zero. Manager exists because opening a container
// (demuxer probe, geometry decode, introspection) is expensive enough that
// callers analysing the same file from multiple call sites should share
// one decode pipeline rather than each paying that cost.
//
// A Stream obtained through a Manager must be released through
// Manager.ReleaseStream, never through Stream.Close directly: closing it
// out from under other holders would surface spurious BackendErrors to
// them.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*managedStream

	// openFunc opens a new Stream for a path not yet in entries. It defaults
	// to Open, and is only overridden by tests, which substitute an
	// openStream call over a fake backend session to avoid depending on a
	// real GStreamer install or container file.
	openFunc func(path string, opts DecoderOptions) (*Stream, error)
}

type managedStream struct {
	stream   *Stream
	refCount int
}

// NewManager returns an empty stream directory.
func NewManager() *Manager {
	return &Manager{entries: make(map[string]*managedStream), openFunc: Open}
}

// GetStream returns the shared Stream for path, opening it if this is the
// first request. opts is only consulted on first open; subsequent callers
// receive the already-open Stream regardless of the opts they pass, and a
// mismatch is logged rather than rejected — reopening the same file with
// different decode options is not supported.
func (m *Manager) GetStream(path string, opts DecoderOptions) (*Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[path]; ok {
		if opts.normalized() != entry.stream.opts {
			slog.Warn("videoframe: manager reusing stream opened with different decoder options", "path", path)
		}
		entry.refCount++
		slog.Debug("videoframe: manager reusing stream", "path", path, "ref_count", entry.refCount)
		return entry.stream, nil
	}

	stream, err := m.openFunc(path, opts)
	if err != nil {
		return nil, err
	}

	m.entries[path] = &managedStream{stream: stream, refCount: 1}
	slog.Info("videoframe: manager opened stream", "path", path)
	return stream, nil
}

// ReleaseStream decrements path's reference count and, once it reaches
// zero, closes the underlying Stream and removes it from the directory.
func (m *Manager) ReleaseStream(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[path]
	if !ok {
		return fmt.Errorf("videoframe: release %q: %w", path, ErrStreamNotFound)
	}

	entry.refCount--
	if entry.refCount > 0 {
		slog.Debug("videoframe: manager released reference", "path", path, "ref_count", entry.refCount)
		return nil
	}

	delete(m.entries, path)
	slog.Info("videoframe: manager closing stream", "path", path)
	return entry.stream.Close()
}

// CloseAll force-closes every stream still tracked by the manager,
// regardless of outstanding reference counts. Intended for process
// shutdown, not for normal reference-count-driven release.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for path, entry := range m.entries {
		if err := entry.stream.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("videoframe: close %q: %w", path, err)
		}
		delete(m.entries, path)
	}
	return firstErr
}
