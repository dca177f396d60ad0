package services

import (
	"testing"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTServiceTokenPair(t *testing.T) {
	svc := NewJWTService(testConfig())
	user := &models.User{Username: "donor", Role: models.RoleUser}
	user.ID = 7

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.InDelta(t, time.Hour.Seconds(), claims.RemainingTTL(time.Now()).Seconds(), 5)

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.NotEqual(t, claims.ID, refresh.ID)
}

func TestJWTServiceRejectsWrongTokenType(t *testing.T) {
	svc := NewJWTService(testConfig())
	user := &models.User{Username: "donor", Role: models.RoleUser}
	user.ID = 1

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.Error(t, err)
	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.Error(t, err)
	_, err = svc.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestJWTServiceRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(testConfig())
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	user := &models.User{Username: "donor", Role: models.RoleUser}
	user.ID = 1
	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
	_, err = svc.ValidateRefreshToken(pair.RefreshToken)
	assert.NoError(t, err)
}
