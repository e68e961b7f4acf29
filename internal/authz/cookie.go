package authz

import (
	"errors"
	"fmt"
	"time"

	"campus-portal/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// RoleClaims is the payload of the role cookie.
type RoleClaims struct {
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

var ErrInvalidCookie = errors.New("invalid role cookie")

// SignRoleCookie returns an HS256 token carrying role for userID.
func SignRoleCookie(secret []byte, userID, sessionID string, role domain.Role, ttl time.Duration, now time.Time) (string, error) {
	claims := RoleClaims{
		Role:      role.String(),
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign role cookie: %w", err)
	}
	return signed, nil
}

// DecodeRoleCookie verifies value and returns its claims.
func DecodeRoleCookie(secret []byte, value string, now time.Time) (*RoleClaims, error) {
	if value == "" {
		return nil, ErrInvalidCookie
	}
	claims := &RoleClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	if !token.Valid {
		return nil, ErrInvalidCookie
	}
	return claims, nil
}
