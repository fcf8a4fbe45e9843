package store

import (
	"sync"

	"github.com/AngelCh415/jobkpi/internal/pipeline"
)

// SessionStore holds the current pipeline state of the process. Updates swap
// the whole value so readers never see a half-applied transition.
type SessionStore struct {
	mu    sync.RWMutex
	state pipeline.State
}

func NewSessionStore() *SessionStore {
	return &SessionStore{state: pipeline.New()}
}

func (s *SessionStore) Load() pipeline.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Update applies fn to the current state and stores the result.
func (s *SessionStore) Update(fn func(pipeline.State) pipeline.State) pipeline.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.state
}

func (s *SessionStore) Reset() pipeline.State {
	return s.Update(func(st pipeline.State) pipeline.State { return st.Reset() })
}
