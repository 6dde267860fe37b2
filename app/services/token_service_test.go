package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) TokenService {
	t.Helper()
	svc, err := NewTokenService(
		15*time.Minute,
		24*time.Hour,
		"ecotrace-test",
		"ecotrace-clients",
		false,
		"", "",
		"test-secret-key-for-unit-tests",
	)
	require.NoError(t, err)
	return svc
}

func TestNewTokenService_RequiresSecretKey(t *testing.T) {
	_, err := NewTokenService(time.Minute, time.Hour, "iss", "aud", false, "", "", "")
	assert.Error(t, err)
}

func TestGenerateAndValidateTokens(t *testing.T) {
	svc := newTestTokenService(t)

	access, refresh, err := svc.GenerateTokens(42)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)

	refreshClaims, err := svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
}

func TestValidateToken_Invalid(t *testing.T) {
	svc := newTestTokenService(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshToken(t *testing.T) {
	svc := newTestTokenService(t)

	_, refresh, err := svc.GenerateTokens(7)
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)

	claims, err := svc.ValidateToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	svc := newTestTokenService(t)

	access, _, err := svc.GenerateTokens(7)
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(access)
	assert.Error(t, err)
}
