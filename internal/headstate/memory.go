package headstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store used by tests and dry runs.
type MemoryStore struct {
	mu       sync.Mutex
	names    []string
	nextID   int
	replaced int

	// Err, when set, is returned by every operation.
	Err error
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with the given head records. Seeding
// more than one record models an inconsistent backend.
func NewMemoryStore(records ...string) *MemoryStore {
	return &MemoryStore{names: append([]string(nil), records...)}
}

func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]string(nil), m.names...), nil
}

func (m *MemoryStore) Replace(ctx context.Context, name string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Record{}, m.Err
	}
	m.nextID++
	m.replaced++
	m.names = []string{name}
	return Record{ID: fmt.Sprintf("mem-%d", m.nextID), MigrationName: name}, nil
}

func (m *MemoryStore) Query(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	return nil, errors.New("memory head store does not support queries")
}

// Replacements returns how many times Replace succeeded.
func (m *MemoryStore) Replacements() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaced
}

func (m *MemoryStore) Close() error {
	return nil
}
