package settings

import (
	"context"
	"sync"
)

// MemoryStore keeps settings in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Settings)}
}

func (m *MemoryStore) LoadSettings(_ context.Context, userID string) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.data[userID]
	if !ok {
		return Default(), nil
	}
	s.HiddenSections = append([]Section{}, s.HiddenSections...)
	return s, nil
}

func (m *MemoryStore) SaveSettings(_ context.Context, userID string, s Settings) error {
	s = s.Normalize()
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s.HiddenSections = append([]Section{}, s.HiddenSections...)
	m.data[userID] = s
	return nil
}
