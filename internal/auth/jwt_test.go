package auth

import (
	"errors"
	"testing"
	"time"

	"restaurant-orders/internal/domain"
)

func TestIssueAndParsePair(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, time.Hour)

	pair, err := m.IssuePair(42)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected both tokens to be issued")
	}

	id, err := m.Parse(pair.Access, TokenAccess)
	if err != nil {
		t.Fatalf("Parse access: %v", err)
	}
	if id != 42 {
		t.Errorf("subject = %d, want 42", id)
	}

	id, err = m.Parse(pair.Refresh, TokenRefresh)
	if err != nil {
		t.Fatalf("Parse refresh: %v", err)
	}
	if id != 42 {
		t.Errorf("subject = %d, want 42", id)
	}
}

func TestParse_WrongType(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, time.Hour)
	pair, err := m.IssuePair(1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Parse(pair.Refresh, TokenAccess); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	if _, err := m.Parse(pair.Access, TokenRefresh); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute, time.Hour)
	token, err := m.IssueAccess(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Parse(token, TokenAccess); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expired token accepted: %v", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Minute, time.Hour)
	verifier := NewTokenManager("secret-b", time.Minute, time.Hour)

	token, err := issuer.IssueAccess(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.Parse(token, TokenAccess); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("token with wrong signature accepted: %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "a.b"} {
		if _, err := m.Parse(tok, TokenAccess); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Parse(%q) accepted: %v", tok, err)
		}
	}
}
