package impl

import (
	"fmt"
	"time"

	"todo-api/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenConfig struct {
	Issuer     string
	TTL        time.Duration // e.g. 10 * 24h
	SigningKey []byte        // HS256 secret
}

// TokenServiceHS256 issues self-contained bearer tokens. Nothing is stored
// server-side, so a token stays valid until its natural expiry.
type TokenServiceHS256 struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenServiceHS256(cfg TokenConfig) *TokenServiceHS256 {
	return &TokenServiceHS256{cfg: cfg, now: time.Now}
}

func (t *TokenServiceHS256) Issue(user *domain.User) (string, error) {
	now := t.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    t.cfg.Issuer,
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.cfg.SigningKey)
}

func (t *TokenServiceHS256) Verify(raw string) (domain.UserID, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	tok, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return t.cfg.SigningKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse token: %w", err)
	}
	if !tok.Valid {
		return uuid.Nil, domain.ErrUnauthorized
	}
	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse subject: %w", err)
	}
	return sub, nil
}
