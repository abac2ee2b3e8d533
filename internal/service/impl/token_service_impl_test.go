package impl

import (
	"strings"
	"testing"
	"time"

	"todo-api/internal/domain"

	"github.com/google/uuid"
)

func newTokenService(key string) *TokenServiceHS256 {
	return NewTokenServiceHS256(TokenConfig{
		Issuer:     "todo-api-test",
		TTL:        10 * 24 * time.Hour,
		SigningKey: []byte(key),
	})
}

func TestTokenRoundTrip(t *testing.T) {
	ts := newTokenService("test-secret")
	user := &domain.User{ID: uuid.New()}

	raw, err := ts.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := ts.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != user.ID {
		t.Fatalf("expected subject %s, got %s", user.ID, got)
	}
}

func TestTokenRejectedAfterExpiry(t *testing.T) {
	ts := newTokenService("test-secret")
	user := &domain.User{ID: uuid.New()}

	raw, err := ts.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuedAt := time.Now()

	// Just inside the window still verifies.
	ts.now = func() time.Time { return issuedAt.Add(10*24*time.Hour - time.Minute) }
	if _, err := ts.Verify(raw); err != nil {
		t.Fatalf("expected token valid inside ttl: %v", err)
	}

	ts.now = func() time.Time { return issuedAt.Add(10*24*time.Hour + time.Minute) }
	if _, err := ts.Verify(raw); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTokenTamperedSignature(t *testing.T) {
	ts := newTokenService("test-secret")
	raw, err := ts.Issue(&domain.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := ts.Verify(tampered); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
}

func TestTokenWrongKey(t *testing.T) {
	raw, err := newTokenService("key-one").Issue(&domain.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := newTokenService("key-two").Verify(raw); err == nil {
		t.Fatalf("expected token signed with another key to be rejected")
	}
}
