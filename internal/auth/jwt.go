package auth

import (
	"errors"
	"fmt"
	"time"

	"cdr-reconciler/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrIdentity     = errors.New("auth: user, client and role are required")
)

// clockSkew is tolerated on exp/iat between the API and token minting hosts.
const clockSkew = 30 * time.Second

// Manager issues and verifies HS256 tokens scoped to one client.
type Manager struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	m := &Manager{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.JWTIssuer,
		audience:   cfg.JWTAudience,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
	if m.accessTTL <= 0 {
		m.accessTTL = 15 * time.Minute
	}
	if m.refreshTTL <= 0 {
		m.refreshTTL = 7 * 24 * time.Hour
	}
	return m, nil
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// IssuePair mints an access and a refresh token for one identity. Both carry the
// role: there is no user store to look it up again on refresh.
func (m *Manager) IssuePair(now time.Time, userID, client, role string) (TokenPair, error) {
	if userID == "" || client == "" || role == "" {
		return TokenPair{}, ErrIdentity
	}
	id := Claims{UserID: userID, Client: client, Role: role}

	access, err := m.sign(now, id, TokenTypeAccess, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign(now, id, TokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new pair with the same identity.
func (m *Manager) Refresh(now time.Time, refreshToken string) (TokenPair, error) {
	c, err := m.Verify(refreshToken, TokenTypeRefresh, now)
	if err != nil {
		return TokenPair{}, err
	}
	return m.IssuePair(now, c.UserID, c.Client, c.Role)
}

// Verify parses tokenString and checks signature, time window, issuer/audience
// when configured, the token type and the identity claims.
func (m *Manager) Verify(tokenString string, expected TokenType, now time.Time) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(clockSkew),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	var c Claims
	if _, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	switch {
	case c.TokenType != expected:
		return Claims{}, fmt.Errorf("%w: expected %s token", ErrInvalidToken, expected)
	case c.UserID == "", c.Client == "", c.Role == "":
		return Claims{}, fmt.Errorf("%w: identity claims missing", ErrInvalidToken)
	}
	return c, nil
}

func (m *Manager) sign(now time.Time, id Claims, typ TokenType, ttl time.Duration) (string, error) {
	id.TokenType = typ
	id.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   id.UserID,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if m.audience != "" {
		id.Audience = jwt.ClaimStrings{m.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, id).SignedString(m.secret)
}
