// Package auth issues and verifies the admin session tokens.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "detox-form-api/internal/common/errors"
)

const RoleAdmin = "admin"

// Claims carried by an admin session token.
type Claims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	LoginTime string `json:"loginTime"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies admin tokens with a shared HMAC secret.
type TokenManager struct {
	secret []byte
	expiry time.Duration

	now func() time.Time
}

// NewTokenManager builds a manager. expiryHours controls token lifetime.
func NewTokenManager(secret string, expiryHours int) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: time.Duration(expiryHours) * time.Hour,
		now:    time.Now,
	}
}

// Issue creates a signed admin token for the given email.
func (m *TokenManager) Issue(email string) (string, error) {
	now := m.now()
	claims := Claims{
		Email:     email,
		Role:      RoleAdmin,
		LoginTime: now.UTC().Format(time.RFC3339),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims. Expired, malformed or
// wrongly signed tokens come back as an unauthorized error.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil || !token.Valid {
		return nil, apperrors.NewUnauthorizedError("token verification failed")
	}

	return claims, nil
}
