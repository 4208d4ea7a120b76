package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

const sessionCookieName = "admin_session_token"
const sessionTTL = time.Hour

// sessionStore tracks issued admin session tokens in memory. Sessions do not
// survive a restart; admins just log in again.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
}

var sessions = &sessionStore{sessions: map[string]time.Time{}}

// issue creates a new random session token.
func (s *sessionStore) issue() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	s.mu.Lock()
	s.sessions[token] = time.Now().Add(sessionTTL)
	s.mu.Unlock()
	return token, nil
}

// valid reports whether a token is live, pruning it when expired.
func (s *sessionStore) valid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.sessions, token)
		return false
	}
	return true
}

// revoke removes a token.
func (s *sessionStore) revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}
