package local

import (
	"sync"

	"github.com/trezcool/masomo-portal/core/session"
)

// MemoryStore is an in-memory session.Persistence. The Fail* errors, when set,
// are returned by the matching operation; tests use them to simulate a broken disk.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]string

	FailGet    error
	FailSet    error
	FailDelete error
}

var _ session.Persistence = (*MemoryStore)(nil) // interface compliance check

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailGet != nil {
		return "", false, s.FailGet
	}
	val, ok := s.records[key]
	return val, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSet != nil {
		return s.FailSet
	}
	s.records[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != nil {
		return s.FailDelete
	}
	delete(s.records, key)
	return nil
}

// Snapshot returns a copy of every record.
func (s *MemoryStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]string, len(s.records))
	for k, v := range s.records {
		snap[k] = v
	}
	return snap
}
