package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("wrong", hash))
	assert.False(t, h.Verify("correct horse", "not-a-hash"))
}

func TestPasswordHasherCostFallback(t *testing.T) {
	h := NewPasswordHasher(99)
	assert.Equal(t, DefaultBcryptCost, h.cost)
}

func TestTokenManagerIssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", "test", 15*time.Minute, time.Hour)
	pair, err := m.Issue("user-1", "manager")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.EqualValues(t, 900, pair.ExpiresIn)

	claims, err := m.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "manager", claims.Role)

	claims, err = m.ParseRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
}

func TestTokenManagerRejectsWrongType(t *testing.T) {
	m := NewTokenManager("secret", "test", time.Minute, time.Hour)
	pair, err := m.Issue("user-1", "customer")
	require.NoError(t, err)

	_, err = m.ParseRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.ParseAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManagerRejectsForeignSecret(t *testing.T) {
	pair, err := NewTokenManager("one", "test", time.Minute, time.Hour).Issue("u", "customer")
	require.NoError(t, err)
	_, err = NewTokenManager("two", "test", time.Minute, time.Hour).ParseAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManagerExpired(t *testing.T) {
	m := NewTokenManager("secret", "test", -time.Minute, time.Hour)
	pair, err := m.Issue("user-1", "customer")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewVerificationCode(t *testing.T) {
	code, err := NewVerificationCode(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, "", strings.Trim(code, "0123456789"))

	code, err = NewVerificationCode(0)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}
