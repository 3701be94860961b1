package thread

import (
	"context"
	"sync"
)

// StorageKey is the fixed key all thread state lives under. One session,
// one thread.
const StorageKey = "scholaria.thread"

// Store persists raw thread state. Get returns nil bytes when nothing is
// stored yet.
type Store interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, raw []byte) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps thread state in process memory. Used in tests and as
// the fallback when no database is configured.
type MemoryStore struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, nil
	}
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = make([]byte, len(raw))
	copy(s.raw, raw)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = nil
	return nil
}
