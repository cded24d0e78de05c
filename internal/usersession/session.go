// Package usersession holds the authenticated account state for one
// client session. The state is an explicit object with a lifecycle
// (Init, Refresh, Teardown) threaded through the pipeline's entry
// points; there is no package-level mutable auth state.
package usersession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"autocontent/internal/profile"
)

// Session is the client-side view of one signed-in account. The
// profile snapshot inside it is a cache of the remote record; Refresh
// reconciles it with the authoritative store.
type Session struct {
	store profile.Store

	mu          sync.Mutex
	prof        profile.Profile
	initialized bool
}

// New creates an uninitialized session bound to a profile store.
func New(store profile.Store) *Session {
	return &Session{store: store}
}

// Init loads the account record and applies the periodic free-tier
// credit refill when it is due.
func (s *Session) Init(ctx context.Context, userID string) error {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("usersession: init %s: %w", userID, err)
	}
	p, err = profile.MaybeResetFree(ctx, s.store, p, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("usersession: free reset %s: %w", userID, err)
	}
	s.mu.Lock()
	s.prof = p
	s.initialized = true
	s.mu.Unlock()
	return nil
}

// Refresh replaces the snapshot with the authoritative record.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	id := s.prof.ID
	ok := s.initialized
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("usersession: refresh before init")
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.prof = p
	s.mu.Unlock()
	return nil
}

// Teardown discards the account state. The session can be re-Init'ed.
func (s *Session) Teardown() {
	s.mu.Lock()
	s.prof = profile.Profile{}
	s.initialized = false
	s.mu.Unlock()
}

// Active reports whether Init has succeeded and Teardown has not run.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Profile returns a copy of the current snapshot.
func (s *Session) Profile() profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prof
}

// SetProfile replaces the snapshot, used after a debit returns the
// authoritative balance.
func (s *Session) SetProfile(p profile.Profile) {
	s.mu.Lock()
	s.prof = p
	s.mu.Unlock()
}
