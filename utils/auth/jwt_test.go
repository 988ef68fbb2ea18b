package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret-key",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "campusgate-test",
	})
}

func testInput() TokenInput {
	return TokenInput{
		UserID:       42,
		Email:        "user@test.edu",
		Role:         "finance",
		UniversityID: 1,
		SchoolID:     2,
		DepartmentID: 3,
		TokenVersion: 7,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := testManager()

	token, jti, err := manager.GenerateAccessToken(testInput())
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "finance", claims.Role)
	assert.Equal(t, uint(2), claims.SchoolID)
	assert.Equal(t, uint(3), claims.DepartmentID)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, 7, claims.TokenVersion)
	assert.Equal(t, jti, claims.ID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := testManager().GenerateAccessToken(testInput())
	require.NoError(t, err)

	other := NewJWTManager(JWTConfig{
		Secret: "different-secret",
		Expiry: time.Hour,
		Issuer: "campusgate-test",
	})

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	manager := NewJWTManager(JWTConfig{
		Secret: "test-secret-key",
		Expiry: -time.Minute,
		Issuer: "campusgate-test",
	})

	token, _, err := manager.GenerateAccessToken(testInput())
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshAccessToken(t *testing.T) {
	manager := testManager()

	refreshToken, _, err := manager.GenerateRefreshToken(testInput())
	require.NoError(t, err)

	accessToken, _, err := manager.RefreshAccessToken(refreshToken, 7)
	require.NoError(t, err)

	claims, err := manager.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	manager := testManager()

	accessToken, _, err := manager.GenerateAccessToken(testInput())
	require.NoError(t, err)

	// An access token cannot be used as a refresh token
	_, _, err = manager.RefreshAccessToken(accessToken, 7)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
