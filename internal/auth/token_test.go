package auth

import (
	"errors"
	"testing"
	"time"

	dom "tiktask/internal/domain"
)

func testUser() dom.User {
	return dom.User{ID: 42, Username: "alice", Role: dom.RoleUser}
}

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("secret", "api", "web", time.Hour)

	token, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID() != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID())
	}
	if claims.Username != "alice" || claims.Role != dom.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager("secret", "api", "web", -time.Minute)

	token, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	issuer := NewManager("secret-a", "api", "web", time.Hour)
	verifier := NewManager("secret-b", "api", "web", time.Hour)

	token, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyChecksIssuerAndAudience(t *testing.T) {
	cases := []struct {
		name             string
		issuer, audience string
	}{
		{"wrong issuer", "other-api", "web"},
		{"wrong audience", "api", "other-web"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			issued, err := NewManager("secret", tc.issuer, tc.audience, time.Hour).Issue(testUser())
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			verifier := NewManager("secret", "api", "web", time.Hour)
			if _, err := verifier.Verify(issued); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewManager("secret", "api", "web", time.Hour)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}
