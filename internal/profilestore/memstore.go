package profilestore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory [Store] for single-process use and tests.
type MemStore struct {
	mu       sync.RWMutex
	profiles map[string]Record
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{profiles: make(map[string]Record)}
}

// Save stores a copy of rec keyed by name, assigning an ID and timestamp.
func (s *MemStore) Save(_ context.Context, rec *Record) error {
	if rec.Name == "" {
		return fmt.Errorf("profilestore: profile name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	s.profiles[rec.Name] = *rec
	return nil
}

// Get returns a copy of the profile stored under name.
func (s *MemStore) Get(_ context.Context, name string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return &rec, nil
}

// List returns all profiles ordered by name.
func (s *MemStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.profiles))
	for _, rec := range s.profiles {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the profile stored under name if present.
func (s *MemStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, name)
	return nil
}
