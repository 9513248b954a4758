package storage

import (
	"context"
	"sync"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

// MemoryStore is an in-memory blob store for tests and development.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[interfaces.MessageID][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[interfaces.MessageID][]byte)}
}

func (b *MemoryStore) Fetch(ctx context.Context, id interfaces.MessageID) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.blobs[id]
	if !ok {
		return nil, interfaces.ErrBlobNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *MemoryStore) Store(ctx context.Context, id interfaces.MessageID, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.blobs[id] = append([]byte(nil), data...)
	return nil
}

func (b *MemoryStore) Available(ctx context.Context) bool {
	return true
}

func (b *MemoryStore) Name() string {
	return "memory"
}

func (b *MemoryStore) LocationURI() string {
	return "mem://"
}
