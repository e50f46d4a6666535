package security

import (
	"errors"
	"testing"
	"time"

	"github.com/arklim/campus-records/internal/core/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSessionTokenManagerRoundTrip(t *testing.T) {
	manager, err := NewSessionTokenManager(testSecret, "campus-records")
	if err != nil {
		t.Fatalf("NewSessionTokenManager: %v", err)
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:          "sess-1",
		PrincipalID: "principal-1",
		Role:        domain.RoleStudent,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}

	token, err := manager.Sign(session)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.SessionID != "sess-1" || claims.Subject != "principal-1" || claims.Role != "STUDENT" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestSessionTokenManagerRejectsForeignSignature(t *testing.T) {
	issuer, _ := NewSessionTokenManager(testSecret, "campus-records")
	verifier, _ := NewSessionTokenManager("fedcba9876543210fedcba9876543210", "campus-records")

	now := time.Now().UTC()
	token, err := issuer.Sign(domain.Session{ID: "s", PrincipalID: "p", Role: domain.RoleTeacher, CreatedAt: now, ExpiresAt: now.Add(time.Minute)})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := verifier.Parse(token); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestSessionTokenManagerRejectsExpired(t *testing.T) {
	manager, _ := NewSessionTokenManager(testSecret, "campus-records")

	past := time.Now().UTC().Add(-2 * time.Hour)
	token, err := manager.Sign(domain.Session{ID: "s", PrincipalID: "p", Role: domain.RoleTeacher, CreatedAt: past, ExpiresAt: past.Add(time.Minute)})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := manager.Parse(token); !errors.Is(err, ErrExpiredSessionToken) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestNewSessionTokenManagerRequiresLongSecret(t *testing.T) {
	if _, err := NewSessionTokenManager("short", "campus-records"); err == nil {
		t.Fatalf("expected error for short secret")
	}
}
