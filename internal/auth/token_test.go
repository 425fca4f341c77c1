package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	v := NewVerifier([]byte("test-secret"), "palavra-arena")
	userID := uuid.New()

	token, err := v.Issue(userID, "alice", time.Hour)
	require.NoError(t, err)

	claims, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.DisplayName)
	assert.Equal(t, "palavra-arena", claims.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := NewVerifier([]byte("secret-a"), "palavra-arena")
	verifier := NewVerifier([]byte("secret-b"), "palavra-arena")

	token, err := issuer.Issue(uuid.New(), "", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	v := NewVerifier([]byte("test-secret"), "palavra-arena")

	past := time.Now().Add(-time.Hour)
	claims := Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "palavra-arena",
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(past),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = v.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	other := NewVerifier([]byte("test-secret"), "someone-else")
	v := NewVerifier([]byte("test-secret"), "palavra-arena")

	token, err := other.Issue(uuid.New(), "", time.Hour)
	require.NoError(t, err)

	_, err = v.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMissingUserID(t *testing.T) {
	v := NewVerifier([]byte("test-secret"), "palavra-arena")
	token, err := v.Issue(uuid.Nil, "", time.Hour)
	require.NoError(t, err)

	_, err = v.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	v := NewVerifier([]byte("test-secret"), "palavra-arena")
	_, err := v.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
