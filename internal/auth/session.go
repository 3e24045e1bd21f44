package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lukman83/components-radar/internal/models"
	"github.com/lukman83/components-radar/internal/storage"
)

// Session exposes the signed-in user held in client storage.
type Session struct {
	store storage.Store
	now   func() time.Time

	mu        sync.Mutex
	listeners []func(authenticated bool)
}

func NewSession(store storage.Store) *Session {
	return &Session{store: store, now: time.Now}
}

// OnChange registers fn to be told when the user signs in or out.
func (s *Session) OnChange(fn func(authenticated bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) Token(ctx context.Context) (string, error) {
	tok, _, err := s.store.Get(ctx, storage.KeyToken)
	return tok, err
}

// User returns the stored user, or nil when signed out.
func (s *Session) User(ctx context.Context) (*models.User, error) {
	var u models.User
	ok, err := storage.GetJSON(ctx, s.store, storage.KeyUser, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// IsAuthenticated reports whether a usable token is stored. Storage
// errors count as signed out.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	tok, err := s.Token(ctx)
	if err != nil || tok == "" {
		return false
	}
	return !tokenExpired(tok, s.now())
}

// tokenExpired reads the exp claim without verifying the signature; the
// backend remains the authority. Opaque tokens never expire client-side.
func tokenExpired(tok string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// SignIn stores token and user, then notifies listeners.
func (s *Session) SignIn(ctx context.Context, token string, user *models.User) error {
	if token == "" {
		return fmt.Errorf("sign in: empty token")
	}
	if err := s.store.Set(ctx, storage.KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if user != nil {
		if err := storage.SetJSON(ctx, s.store, storage.KeyUser, user); err != nil {
			return fmt.Errorf("store user: %w", err)
		}
	}
	s.notify(true)
	return nil
}

// SignOut removes token, user and the remembered email.
func (s *Session) SignOut(ctx context.Context) error {
	for _, key := range []string{storage.KeyToken, storage.KeyUser, storage.KeyEmail} {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
	}
	s.notify(false)
	return nil
}

func (s *Session) notify(authenticated bool) {
	s.mu.Lock()
	listeners := append([]func(bool){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(authenticated)
	}
}
