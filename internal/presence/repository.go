package presence

import (
	"context"
	"sync"
	"time"
)

// Repository persists raw presence records. Liveness is never enforced here;
// the Store filters on read.
type Repository interface {
	Upsert(ctx context.Context, rec Record) error
	Get(ctx context.Context, documentID, editorID string) (Record, bool, error)
	// Touch refreshes LastActiveAt of an existing record and reports whether
	// the record was still there.
	Touch(ctx context.Context, documentID, editorID string, at time.Time) (bool, error)
	Remove(ctx context.Context, documentID, editorID string) error
	List(ctx context.Context, documentID string) ([]Record, error)
}

// MemoryRepo keeps records in process memory, keyed by document then editor.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]map[string]Record
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]map[string]Record)}
}

func (m *MemoryRepo) Upsert(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	editors, ok := m.docs[rec.DocumentID]
	if !ok {
		editors = make(map[string]Record)
		m.docs[rec.DocumentID] = editors
	}
	editors[rec.EditorID] = rec
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, documentID, editorID string) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.docs[documentID][editorID]
	return rec, ok, nil
}

func (m *MemoryRepo) Touch(ctx context.Context, documentID, editorID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.docs[documentID][editorID]
	if !ok {
		return false, nil
	}
	rec.LastActiveAt = at
	m.docs[documentID][editorID] = rec
	return true, nil
}

func (m *MemoryRepo) Remove(ctx context.Context, documentID, editorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	editors, ok := m.docs[documentID]
	if !ok {
		return nil
	}
	delete(editors, editorID)
	if len(editors) == 0 {
		delete(m.docs, documentID)
	}
	return nil
}

func (m *MemoryRepo) List(ctx context.Context, documentID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.docs[documentID]))
	for _, rec := range m.docs[documentID] {
		out = append(out, rec)
	}
	return out, nil
}
