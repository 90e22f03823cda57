package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/fable/pkg/domain"
)

// Store implements ports.AttributeStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]map[string]domain.Value
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]map[string]domain.Value),
	}
}

// Save persists a copy of the attributes.
func (s *Store) Save(ctx context.Context, saveID string, attrs map[string]domain.Value) error {
	copied := make(map[string]domain.Value, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[saveID] = copied
	return nil
}

// Load returns a copy of the attributes so callers cannot mutate the store.
func (s *Store) Load(ctx context.Context, saveID string) (map[string]domain.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attrs, ok := s.data[saveID]
	if !ok {
		return nil, domain.ErrSaveNotFound
	}

	ret := make(map[string]domain.Value, len(attrs))
	for k, v := range attrs {
		ret[k] = v
	}
	return ret, nil
}

// Delete removes the save.
func (s *Store) Delete(ctx context.Context, saveID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, saveID)
	return nil
}

// List returns the stored save IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	saves := make([]string, 0, len(s.data))
	for id := range s.data {
		saves = append(saves, id)
	}
	sort.Strings(saves)
	return saves, nil
}
