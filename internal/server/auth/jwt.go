// Package auth issues and verifies access tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookreviews/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: {"id": <user id>, "iat": ..., "exp": ...}.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// IssueToken signs an HS256 token for userID that expires after ttl.
func IssueToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	issued := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
		UserID: userID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// UserIDFromToken checks signature and expiry and returns the embedded user
// id. Expired tokens yield common.ErrTokenExpired, anything else that fails
// yields common.ErrInvalidToken.
func UserIDFromToken(raw string, secret []byte) (string, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", common.ErrTokenExpired
	case err != nil, claims.UserID == "":
		return "", common.ErrInvalidToken
	}
	return claims.UserID, nil
}
