package services

import (
	"testing"
	"time"

	"fuel_dispatch/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("test_secret", 15*time.Minute)

	token, err := svc.IssueAccessToken(42, "MAIN_USER", "9876543210")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ParseAccessToken(token)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "MAIN_USER", claims.Role)
	assert.Equal(t, "9876543210", claims.Phone)
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("test_secret", -time.Minute)

	token, err := svc.IssueAccessToken(1, "MAIN_USER", "9876543210")
	assert.NoError(t, err)

	_, err = svc.ParseAccessToken(token)
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := NewTokenService("secret_a", 15*time.Minute)
	verifier := NewTokenService("secret_b", 15*time.Minute)

	token, err := issuer.IssueAccessToken(1, "DRIVER", "8888888888")
	assert.NoError(t, err)

	_, err = verifier.ParseAccessToken(token)
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}

func TestTokenService_Garbage(t *testing.T) {
	svc := NewTokenService("test_secret", 15*time.Minute)
	_, err := svc.ParseAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}

func TestNewRefreshToken(t *testing.T) {
	svc := NewTokenService("test_secret", 15*time.Minute)

	a, err := svc.NewRefreshToken()
	assert.NoError(t, err)
	b, err := svc.NewRefreshToken()
	assert.NoError(t, err)

	assert.Len(t, a, 64) // 32 bytes hex encoded
	assert.NotEqual(t, a, b)
}
