package handler

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"autocontent/internal/artifact"
	"autocontent/internal/pipeline"
	"autocontent/internal/template"
	"autocontent/internal/usersession"
	"autocontent/internal/wizard"
)

var (
	errRunNotFound = errors.New("run not found")
	// errRunBusy means a generation is already in flight for the run;
	// the wizard does not accept new submissions until it settles.
	errRunBusy = errors.New("a generation is already in progress for this run")
)

// Run is one active wizard invocation: the wizard session, the account
// session driving it, and the artifact it produced.
type Run struct {
	ID         string
	Template   *template.Template
	Wizard     *wizard.Session
	User       *usersession.Session
	Artifact   *artifact.Artifact
	Transcript pipeline.Transcript

	mu   sync.Mutex
	busy bool
}

// begin marks the run busy for the duration of a generation. It
// reports false when another generation is already in flight.
func (r *Run) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return false
	}
	r.busy = true
	return true
}

func (r *Run) end() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}

// RunStore keeps active runs in memory. Runs are per-invocation state
// and do not survive a restart.
type RunStore struct {
	mu   sync.RWMutex
	byID map[string]*Run
}

func NewRunStore() *RunStore {
	return &RunStore{byID: make(map[string]*Run)}
}

func (s *RunStore) Add(r *Run) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.byID[r.ID] = r
	return r.ID
}

func (s *RunStore) Get(id string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	return r, ok
}

func (s *RunStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}
