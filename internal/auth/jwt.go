package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"restaurant-orders/internal/domain"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the HMAC-signed bearer tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssuePair returns a fresh access/refresh token pair for the user.
func (m *TokenManager) IssuePair(userID int64) (TokenPair, error) {
	access, err := m.issue(userID, TokenAccess, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.issue(userID, TokenRefresh, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess returns a new access token, used by the refresh exchange.
func (m *TokenManager) IssueAccess(userID int64) (string, error) {
	return m.issue(userID, TokenAccess, m.accessTTL)
}

func (m *TokenManager) issue(userID int64, typ string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(m.secret)
}

// Parse verifies the token signature, expiry and type, and returns the
// subject user id. Any failure maps to ErrUnauthorized.
func (m *TokenManager) Parse(tokenString, wantType string) (int64, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if c.TokenType != wantType {
		return 0, fmt.Errorf("%w: token is not a %s token", domain.ErrUnauthorized, wantType)
	}

	var userID int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &userID); err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: invalid token subject", domain.ErrUnauthorized)
	}
	return userID, nil
}
