package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/library-system/internal/core/domain"
)

const minSigningKeyLen = 32

// TokenConfig is the immutable signing configuration, built once at startup.
type TokenConfig struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	TTL        time.Duration
}

// accessClaims is the JWT payload. The password hash is never part of it.
type accessClaims struct {
	UserID int64    `json:"uid"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 access tokens. It holds no mutable state
// and is safe for concurrent use.
type TokenService struct {
	cfg    TokenConfig
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenService validates cfg and returns a TokenService. A missing or short
// key, empty issuer/audience or a TTL under one second is a startup error.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	switch {
	case len(cfg.SigningKey) == 0:
		return nil, errors.New("token: signing key is required")
	case len(cfg.SigningKey) < minSigningKeyLen:
		return nil, fmt.Errorf("token: signing key must be at least %d bytes", minSigningKeyLen)
	case strings.TrimSpace(cfg.Issuer) == "" || strings.TrimSpace(cfg.Audience) == "":
		return nil, errors.New("token: issuer and audience are required")
	case cfg.TTL < time.Second:
		return nil, fmt.Errorf("token: expiry %s must be at least one second", cfg.TTL)
	}

	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)
	cfg.SigningKey = key

	s := &TokenService{cfg: cfg, now: time.Now}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// Issue signs a token for user carrying its identity and role claims.
func (s *TokenService) Issue(user *domain.User) (string, *domain.AccessToken, error) {
	if user == nil || user.Username == "" || user.ID <= 0 {
		return "", nil, fmt.Errorf("issue token: %w", domain.ErrInvalidInput)
	}

	now := s.now().UTC().Truncate(jwt.TimePrecision)
	claims := accessClaims{
		UserID: user.ID,
		Roles:  user.Permissions.Roles(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.toAccessToken(), nil
}

// Validate verifies signature, algorithm, issuer, audience and expiry. A token is
// rejected once the current time reaches its expiry instant. Every failure wraps
// domain.ErrUnauthenticated.
func (s *TokenService) Validate(raw string) (*domain.AccessToken, error) {
	claims := &accessClaims{}
	tkn, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.cfg.SigningKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if !tkn.Valid || claims.Subject == "" || claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: incomplete claims", domain.ErrUnauthenticated)
	}
	return claims.toAccessToken(), nil
}

func (c *accessClaims) toAccessToken() *domain.AccessToken {
	tok := &domain.AccessToken{
		ID:      c.ID,
		Subject: c.Subject,
		UserID:  c.UserID,
		Roles:   append([]string(nil), c.Roles...),
		Issuer:  c.Issuer,
	}
	if len(c.Audience) > 0 {
		tok.Audience = c.Audience[0]
	}
	if c.IssuedAt != nil {
		tok.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		tok.ExpiresAt = c.ExpiresAt.Time
	}
	return tok
}
