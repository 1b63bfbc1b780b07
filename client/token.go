package client

import "sync"

// TokenSource supplies the bearer token for each request. An empty token
// sends no Authorization header.
type TokenSource interface {
	Token() string
}

// TokenClearer is implemented by token sources that can forget their token.
// Logout calls Clear on any source that implements it.
type TokenClearer interface {
	Clear()
}

// TokenStore is a TokenSource whose token can be replaced or cleared at any
// time. It is safe for concurrent use.
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewTokenStore returns a TokenStore holding token.
func NewTokenStore(token string) *TokenStore {
	return &TokenStore{token: token}
}

// Token implements TokenSource.
func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the token.
func (s *TokenStore) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear removes the token.
func (s *TokenStore) Clear() {
	s.Set("")
}
