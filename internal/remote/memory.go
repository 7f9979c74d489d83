package remote

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mit112/flickswiper/internal/errors"
)

// Memory is an in-memory Store implementation. It is used by tests and by
// embedders running without a remote backend; the listener fan-out mirrors
// the snapshot-per-change behavior of the real document service.
type Memory struct {
	mu         sync.RWMutex
	docs       map[string]Document
	listeners  map[string]map[string]func(Snapshot)
	failWrites bool
}

// NewMemory creates an empty in-memory document store.
func NewMemory() *Memory {
	return &Memory{
		docs:      make(map[string]Document),
		listeners: make(map[string]map[string]func(Snapshot)),
	}
}

// FailWrites makes subsequent Set and Delete calls fail. Tests use it to
// simulate an unreachable backend.
func (m *Memory) FailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = fail
}

// Set stores a document and notifies listeners with the new snapshot.
func (m *Memory) Set(_ context.Context, docID string, doc Document) error {
	m.mu.Lock()
	if m.failWrites {
		m.mu.Unlock()
		return errors.Remote("remote store unavailable", nil)
	}
	m.docs[docID] = doc
	fns := m.snapshotListeners(docID)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(Snapshot{DocID: docID, Doc: doc, Exists: true})
	}
	return nil
}

// Get returns a document by ID. The second result is false if it does not
// exist.
func (m *Memory) Get(_ context.Context, docID string) (Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[docID]
	return doc, ok, nil
}

// Delete removes a document and notifies listeners with Exists=false.
func (m *Memory) Delete(_ context.Context, docID string) error {
	m.mu.Lock()
	if m.failWrites {
		m.mu.Unlock()
		return errors.Remote("remote store unavailable", nil)
	}
	delete(m.docs, docID)
	fns := m.snapshotListeners(docID)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(Snapshot{DocID: docID, Exists: false})
	}
	return nil
}

// ApplyBatch applies all writes, then notifies listeners once per document.
func (m *Memory) ApplyBatch(ctx context.Context, writes []Write) error {
	for _, w := range writes {
		if w.Delete {
			if err := m.Delete(ctx, w.DocID); err != nil {
				return err
			}
			continue
		}
		if err := m.Set(ctx, w.DocID, w.Doc); err != nil {
			return err
		}
	}
	return nil
}

// Listen subscribes to a document. The current state is delivered
// immediately, matching the real service's initial snapshot.
func (m *Memory) Listen(docID string, fn func(Snapshot)) (cancel func()) {
	token := uuid.New().String()

	m.mu.Lock()
	if m.listeners[docID] == nil {
		m.listeners[docID] = make(map[string]func(Snapshot))
	}
	m.listeners[docID][token] = fn
	doc, ok := m.docs[docID]
	m.mu.Unlock()

	fn(Snapshot{DocID: docID, Doc: doc, Exists: ok})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners[docID], token)
	}
}

// snapshotListeners copies the listener set for a doc; callers invoke the
// functions outside the lock.
func (m *Memory) snapshotListeners(docID string) []func(Snapshot) {
	fns := make([]func(Snapshot), 0, len(m.listeners[docID]))
	for _, fn := range m.listeners[docID] {
		fns = append(fns, fn)
	}
	return fns
}
