package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/camuig/trader-console/internal/logger"
)

// Persister keeps the credential across restarts of the console.
type Persister interface {
	SaveToken(token string) error
	LoadToken() (string, error)
	ClearToken() error
}

// Store is the single source of truth for the bearer credential. An absent or
// expired token means "signed out".
type Store struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time // zero when the token carries no exp claim

	persister Persister
	logger    *logger.Logger
	now       func() time.Time
}

func NewStore(p Persister, log *logger.Logger) *Store {
	return &Store{
		persister: p,
		logger:    log,
		now:       time.Now,
	}
}

// Restore loads a persisted credential, dropping it if it has already expired.
func (s *Store) Restore() error {
	if s.persister == nil {
		return nil
	}

	token, err := s.persister.LoadToken()
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return nil
	}

	exp := expiry(token)
	if !exp.IsZero() && !s.now().Before(exp) {
		s.logger.Info("persisted session expired, discarding", "expired_at", exp)
		if err := s.persister.ClearToken(); err != nil {
			return fmt.Errorf("clear token: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.expiresAt = exp
	s.mu.Unlock()

	s.logger.Info("session restored")
	return nil
}

func (s *Store) Set(token string) error {
	if token == "" {
		return errors.New("empty access token")
	}

	s.mu.Lock()
	s.token = token
	s.expiresAt = expiry(token)
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.SaveToken(token); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
	}
	return nil
}

// Token returns the current credential, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return ""
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return ""
	}
	return s.token
}

func (s *Store) SignedIn() bool {
	return s.Token() != ""
}

// ExpiresAt reports the credential expiry when the token is a JWT with an exp claim.
func (s *Store) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt, !s.expiresAt.IsZero()
}

func (s *Store) Clear() {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if !had {
		return
	}
	s.logger.Info("session cleared")
	if s.persister != nil {
		if err := s.persister.ClearToken(); err != nil {
			s.logger.Error("clear persisted token", "error", err)
		}
	}
}

// expiry reads the exp claim without verifying the signature; the backend
// remains the only judge of validity.
func expiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
