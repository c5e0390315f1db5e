package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hortifruti-pdv/internal/session"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, expires, err := m.GenerateToken(session.Session{UserID: 3, Username: "ana", Role: session.RoleSeller})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, session.Session{UserID: 3, Username: "ana", Role: session.RoleSeller}, claims.Session())
}

func TestTokenRejectsOtherKey(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Hour).GenerateToken(session.Session{UserID: 1, Role: session.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).ValidateToken(token)
	require.Error(t, err)
}

func TestTokenExpires(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.GenerateToken(session.Session{UserID: 1, Role: session.RoleAdmin})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	require.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "admin123"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
