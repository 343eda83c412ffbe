package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"fuel_dispatch/internal/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by every access token. Validation needs only the
// signature and expiry, no store lookup.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	Phone  string `json:"phone"`
	jwt.RegisteredClaims
}

type TokenService interface {
	IssueAccessToken(userID uint, role, phone string) (string, error)
	ParseAccessToken(tokenStr string) (*Claims, error)
	NewRefreshToken() (string, error)
}

type tokenService struct {
	secret    []byte
	accessTTL time.Duration
}

func NewTokenService(secret string, accessTTL time.Duration) TokenService {
	return &tokenService{secret: []byte(secret), accessTTL: accessTTL}
}

func (s *tokenService) IssueAccessToken(userID uint, role, phone string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Phone:  phone,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *tokenService) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrAuthentication
	}
	return claims, nil
}

// NewRefreshToken mints an opaque 256-bit random value. The caller
// persists it; it carries no claims of its own.
func (s *tokenService) NewRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
