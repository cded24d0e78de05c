package profile

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for local development and tests.
// It honors the same atomic-debit contract as the Postgres store.
type MemoryStore struct {
	mu   sync.Mutex
	byID map[string]Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Profile)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Debit(_ context.Context, id string, cost int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	if p.Credits < cost {
		return 0, ErrInsufficientCredits
	}
	p.Credits -= cost
	s.byID[id] = p
	return p.Credits, nil
}

func (s *MemoryStore) SetCredits(_ context.Context, id string, credits int, resetAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.Credits = credits
	p.LastFreeReset = resetAt
	s.byID[id] = p
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[p.ID] = p
	return nil
}
