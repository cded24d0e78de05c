package artifact

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for local development and tests.
type MemoryStore struct {
	mu   sync.Mutex
	byID map[string]Artifact
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Artifact)}
}

func (s *MemoryStore) Insert(_ context.Context, a *Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.PreviewSnippet == "" {
		a.PreviewSnippet = Preview(a.Kind, a.Content)
	}
	s.byID[a.ID] = *a
	return nil
}

func (s *MemoryStore) UpdateContent(_ context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.Content = content
	s.byID[id] = a
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Artifact
	for _, a := range s.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}
