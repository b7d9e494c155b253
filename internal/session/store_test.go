package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/camuig/trader-console/internal/logger"
)

type memPersister struct {
	token   string
	cleared int
}

func (m *memPersister) SaveToken(token string) error { m.token = token; return nil }
func (m *memPersister) LoadToken() (string, error)   { return m.token, nil }
func (m *memPersister) ClearToken() error            { m.token = ""; m.cleared++; return nil }

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestStoreLifecycle(t *testing.T) {
	p := &memPersister{}
	s := NewStore(p, logger.Discard())

	if s.SignedIn() {
		t.Fatal("new store should be signed out")
	}

	if err := s.Set("opaque-token"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := s.Token(); got != "opaque-token" {
		t.Errorf("Token() = %q, want opaque-token", got)
	}
	if _, ok := s.ExpiresAt(); ok {
		t.Error("opaque token should have no known expiry")
	}
	if p.token != "opaque-token" {
		t.Errorf("persisted token = %q", p.token)
	}

	s.Clear()
	if s.SignedIn() {
		t.Error("store should be signed out after Clear()")
	}
	if p.token != "" || p.cleared != 1 {
		t.Errorf("persister not cleared: token=%q cleared=%d", p.token, p.cleared)
	}

	if err := s.Set(""); err == nil {
		t.Error("Set(\"\") should fail")
	}
}

func TestStoreExpiredTokenIsSignedOut(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(nil, logger.Discard())
	s.now = func() time.Time { return now }

	tok := signed(t, now.Add(time.Hour))
	if err := s.Set(tok); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !s.SignedIn() {
		t.Fatal("token valid for another hour should be signed in")
	}
	exp, ok := s.ExpiresAt()
	if !ok || !exp.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiresAt() = %v, %v", exp, ok)
	}

	now = now.Add(2 * time.Hour)
	if s.Token() != "" {
		t.Error("expired token should read as signed out")
	}
}

func TestStoreRestore(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		token      string
		wantSigned bool
	}{
		{name: "nothing persisted", token: "", wantSigned: false},
		{name: "valid jwt", token: signed(t, now.Add(time.Hour)), wantSigned: true},
		{name: "expired jwt", token: signed(t, now.Add(-time.Hour)), wantSigned: false},
		{name: "opaque token", token: "abc", wantSigned: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &memPersister{token: tt.token}
			s := NewStore(p, logger.Discard())
			s.now = func() time.Time { return now }

			if err := s.Restore(); err != nil {
				t.Fatalf("Restore() error = %v", err)
			}
			if s.SignedIn() != tt.wantSigned {
				t.Errorf("SignedIn() = %v, want %v", s.SignedIn(), tt.wantSigned)
			}
			if !tt.wantSigned && tt.token != "" && p.token != "" {
				t.Error("expired persisted token should be cleared")
			}
		})
	}
}
