package userstore

import (
	"context"
	"sync"

	"github.com/platinummonkey/keycloak-sso/pkg/sso"
)

// MemoryStore is an in-memory user table
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryStore creates a store holding users
func NewMemoryStore(users ...*User) *MemoryStore {
	s := &MemoryStore{users: make(map[string]*User, len(users))}
	for _, u := range users {
		s.Put(u)
	}
	return s
}

// Put adds or replaces a user keyed by email
func (s *MemoryStore) Put(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Email] = user
}

// Delete removes the user with the given email
func (s *MemoryStore) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, email)
}

// Lookup returns the active user with the given email
func (s *MemoryStore) Lookup(_ context.Context, email string, _ sso.TokenPayload) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok || !user.Active {
		return nil, false
	}
	return user, true
}
