package httpapi

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mquispe/accessdir/internal/auth"
)

// sessionStore maps bearer tokens to authenticated identities. Sessions are
// process-local and vanish on restart — the engine itself has no session
// semantics, this is adapter plumbing.
type sessionStore struct {
	mu sync.RWMutex
	m  map[string]auth.Identity
}

func newSessionStore() *sessionStore {
	return &sessionStore{m: make(map[string]auth.Identity)}
}

func (s *sessionStore) Create(id auth.Identity) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.m[token] = id
	s.mu.Unlock()
	return token
}

func (s *sessionStore) Get(token string) (auth.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.m[token]
	return id, ok
}

func (s *sessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.m, token)
	s.mu.Unlock()
}
