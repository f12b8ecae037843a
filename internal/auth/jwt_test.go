package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet/internal/domain"
)

func testTokenManager() *TokenManager {
	return NewTokenManager(
		TokenConfig{Secret: "access-secret", TTL: time.Minute},
		TokenConfig{Secret: "refresh-secret", TTL: time.Hour},
		TokenConfig{Secret: "reset-secret", TTL: 15 * time.Minute},
	)
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	m := testTokenManager()
	user := &domain.User{
		ID:    "user-1",
		Email: "dara@example.com",
		Name:  "Dara",
		Role:  domain.RoleUser,
	}

	token, err := m.AccessToken(user)
	require.NoError(t, err)

	claims, err := m.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.ID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, domain.RoleUser, claims.Role)

	actor := claims.Actor()
	assert.Equal(t, user.ID, actor.ID)
	assert.Equal(t, user.Role, actor.Role)
}

func TestTokenKindsDoNotCrossVerify(t *testing.T) {
	t.Parallel()

	m := testTokenManager()
	user := &domain.User{ID: "user-1", Email: "dara@example.com", Role: domain.RoleUser}

	refresh, err := m.RefreshToken(user)
	require.NoError(t, err)

	_, err = m.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	reset, err := m.ResetToken(user)
	require.NoError(t, err)

	_, err = m.VerifyRefresh(reset)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	m := testTokenManager()
	_, err := m.VerifyAccess("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseBearerToken(t *testing.T) {
	t.Parallel()

	token, err := ParseBearerToken("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	token, err = ParseBearerToken("abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = ParseBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseBearerToken("Bearer ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHasher(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(4)

	hash, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, h.Compare(hash, "hunter22"))
	assert.False(t, h.Compare(hash, "hunter23"))
}
