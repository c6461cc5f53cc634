package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}

	signed, err := issuer.Issue("admin")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	subject, err := issuer.Verify(signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if subject != "admin" {
		t.Errorf("expected subject admin, got %s", subject)
	}
}

func TestTokenIssuer_ExpiryWindow(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}

	before := time.Now()
	signed, err := issuer.Issue("admin")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	after := time.Now()

	// Decode without verifying to inspect the expiry claim.
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(signed, claims); err != nil {
		t.Fatalf("ParseUnverified failed: %v", err)
	}

	if claims.ExpiresAt == nil {
		t.Fatal("expected exp claim to be set")
	}

	lo := before.Add(30 * time.Minute).Add(-2 * time.Second)
	hi := after.Add(30 * time.Minute).Add(2 * time.Second)
	if claims.ExpiresAt.Time.Before(lo) || claims.ExpiresAt.Time.After(hi) {
		t.Errorf("expiry %v outside expected window [%v, %v]", claims.ExpiresAt.Time, lo, hi)
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	t.Parallel()

	// A TTL of one nanosecond means the token is already expired by the
	// time Verify runs.
	issuer, err := NewTokenIssuer("test-secret", "HS256", time.Nanosecond)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}

	signed, err := issuer.Issue("admin")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := issuer.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenIssuer("test-secret", "HS256", 30*time.Minute)
	other, _ := NewTokenIssuer("different-secret", "HS256", 30*time.Minute)

	signed, err := issuer.Issue("admin")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := other.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for wrong secret, got %v", err)
	}
}

func TestTokenIssuer_RejectsWrongAlgorithm(t *testing.T) {
	t.Parallel()

	hs256, _ := NewTokenIssuer("test-secret", "HS256", 30*time.Minute)
	hs512, _ := NewTokenIssuer("test-secret", "HS512", 30*time.Minute)

	signed, err := hs512.Issue("admin")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := hs256.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for algorithm mismatch, got %v", err)
	}
}

func TestNewTokenIssuer_FailsClosed(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenIssuer("", "HS256", 30*time.Minute); !errors.Is(err, ErrNoSigningSecret) {
		t.Errorf("expected ErrNoSigningSecret for empty secret, got %v", err)
	}

	if _, err := NewTokenIssuer("secret", "RS256", 30*time.Minute); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm for RS256, got %v", err)
	}
}

func TestNewTokenIssuer_DefaultTTL(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("secret", "", 0)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}
	if issuer.TTL() != 30*time.Minute {
		t.Errorf("expected default TTL 30m, got %s", issuer.TTL())
	}
}
