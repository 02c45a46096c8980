// internal/persistence/slot.go
package persistence

import (
	"context"
	"errors"
	"sync"
)

// ErrSlotEmpty is returned by Get when nothing is stored under the key.
var ErrSlotEmpty = errors.New("slot empty")

// Slot is a durable key/value location holding one serialized snapshot.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Name labels the backend in logs and metrics.
	Name() string
}

// MemorySlot keeps snapshots in process memory.
type MemorySlot struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte)}
}

func (m *MemorySlot) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), v...), nil
}

func (m *MemorySlot) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemorySlot) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemorySlot) Name() string { return "memory" }
