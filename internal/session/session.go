// Package session holds the authenticated user's credentials.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store persists a session between runs.
type Store interface {
	Load(ctx context.Context) (token, username string, err error)
	Save(ctx context.Context, token, username string) error
	Clear(ctx context.Context) error
}

// Session is passed explicitly to everything that talks to the backend.
type Session struct {
	mu       sync.RWMutex
	token    string
	username string
	store    Store
	now      func() time.Time
}

// New returns a session that lives only in memory.
func New(token, username string) *Session {
	return &Session{token: token, username: username, now: time.Now}
}

// Restore loads a previously saved session. A load failure yields an
// unauthenticated session, not an error.
func Restore(ctx context.Context, store Store) *Session {
	s := &Session{store: store, now: time.Now}
	if store == nil {
		return s
	}
	token, username, err := store.Load(ctx)
	if err != nil {
		slog.Warn("failed to restore session", "error", err)
		return s
	}
	s.token, s.username = token, username
	return s
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// ExpiresAt reads the exp claim of the token without verifying its signature.
// The backend does the verification; this only lets us skip calls that would
// certainly fail.
func (s *Session) ExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsAuthenticated reports whether a token is present and not known to be expired.
func (s *Session) IsAuthenticated() bool {
	if s.Token() == "" {
		return false
	}
	if exp, ok := s.ExpiresAt(); ok && !s.now().Before(exp) {
		return false
	}
	return true
}

func (s *Session) Save(ctx context.Context, token, username string) error {
	s.mu.Lock()
	s.token, s.username = token, username
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, token, username); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.username = "", ""
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear stored session: %w", err)
	}
	return nil
}
