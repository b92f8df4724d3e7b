package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/bookreviews/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	userID := "7b0f3c1e-53f4-4d0e-9a38-6f6b0f1c2d3e"

	tok, err := IssueToken(userID, secret, time.Hour)
	require.NoError(t, err)

	got, err := UserIDFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestIssueToken_ClaimsShape(t *testing.T) {
	t.Parallel()

	tok, err := IssueToken("u1", []byte("k"), 30*24*time.Hour)
	require.NoError(t, err)

	var claims Claims
	_, _, err = jwt.NewParser().ParseUnverified(tok, &claims)
	require.NoError(t, err)

	assert.Equal(t, "u1", claims.UserID)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, 30*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestUserIDFromToken_Rejects(t *testing.T) {
	t.Parallel()

	sign := func(userID string, secret []byte, ttl time.Duration) string {
		s, err := IssueToken(userID, secret, ttl)
		require.NoError(t, err)
		return s
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u3"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u4"}).SignedString([]byte("k"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", sign("u1", []byte("k"), -time.Second), common.ErrTokenExpired},
		{"wrong secret", sign("u2", []byte("other"), time.Hour), common.ErrInvalidToken},
		{"malformed", "not.a.jwt", common.ErrInvalidToken},
		{"alg none", none, common.ErrInvalidToken},
		{"no expiry", noExpiry, common.ErrInvalidToken},
		{"empty user id", sign("", []byte("k"), time.Hour), common.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UserIDFromToken(tt.token, []byte("k"))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
