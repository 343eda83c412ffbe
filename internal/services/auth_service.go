package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"time"

	"fuel_dispatch/internal/apperrors"
	"fuel_dispatch/internal/models"
	"fuel_dispatch/internal/repository"
)

// CredentialStore holds short-lived OTP challenges and the per-phone
// failed-attempt counters. Backed by redis in production.
type CredentialStore interface {
	SetChallenge(ctx context.Context, phone, code string, ttl time.Duration) error
	GetChallenge(ctx context.Context, phone string) (string, error)
	ConsumeChallenge(ctx context.Context, phone, code string) (bool, error)
	IncrAttempts(ctx context.Context, phone string, window time.Duration) (int64, error)
	ClearAttempts(ctx context.Context, phone string) error
}

type AuthConfig struct {
	OTPTTL         time.Duration
	MaxAttempts    int
	LockoutWindow  time.Duration
	RefreshTTL     time.Duration
	PhoneDigits    int
}

type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (*AuthResult, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
}

type authService struct {
	store    CredentialStore
	userRepo repository.UserRepository
	rtRepo   repository.RefreshTokenRepository
	tokens   TokenService
	notifier Notifier
	cfg      AuthConfig

	phoneRe *regexp.Regexp
	// generateCode is swappable so tests can pin the challenge value.
	generateCode func() (string, error)
}

func NewAuthService(
	store CredentialStore,
	userRepo repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	tokens TokenService,
	notifier Notifier,
	cfg AuthConfig,
) AuthService {
	return &authService{
		store:        store,
		userRepo:     userRepo,
		rtRepo:       rtRepo,
		tokens:       tokens,
		notifier:     notifier,
		cfg:          cfg,
		phoneRe:      regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, cfg.PhoneDigits)),
		generateCode: generateOTPCode,
	}
}

// generateOTPCode returns a uniformly random 6-digit code.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestOTP stores a fresh challenge for the phone, replacing any live
// one, and hands it to the notifier. It succeeds for every format-valid
// phone and never reveals whether the phone is registered.
func (s *authService) RequestOTP(ctx context.Context, phone string) error {
	if !s.phoneRe.MatchString(phone) {
		return fmt.Errorf("%w: phone must be exactly %d digits", apperrors.ErrValidation, s.cfg.PhoneDigits)
	}

	code, err := s.generateCode()
	if err != nil {
		return err
	}

	if err := s.store.SetChallenge(ctx, phone, code, s.cfg.OTPTTL); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}

	s.notifier.SendOTP(phone, code)
	return nil
}

// VerifyOTP consumes the live challenge for the phone. The challenge is
// single-use: on a match it is deleted atomically, and at most one of two
// concurrent correct attempts wins. A mismatch consumes one attempt but
// leaves the stored challenge intact.
func (s *authService) VerifyOTP(ctx context.Context, phone, code string) (*AuthResult, error) {
	if !s.phoneRe.MatchString(phone) || len(code) != 6 {
		return nil, fmt.Errorf("%w: malformed phone or OTP", apperrors.ErrValidation)
	}

	attempts, err := s.store.IncrAttempts(ctx, phone, s.cfg.LockoutWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	if attempts > int64(s.cfg.MaxAttempts) {
		log.Printf("OTP lockout for phone %s after %d attempts", phone, attempts)
		return nil, apperrors.ErrTooManyAttempts
	}

	stored, err := s.store.GetChallenge(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, apperrors.ErrInvalidOrExpiredOTP
	}

	// The code matched our read, but only the caller that wins the
	// conditional delete may proceed.
	won, err := s.store.ConsumeChallenge(ctx, phone, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	if !won {
		return nil, apperrors.ErrInvalidOrExpiredOTP
	}

	if err := s.store.ClearAttempts(ctx, phone); err != nil {
		log.Printf("failed to clear OTP attempts for %s: %v", phone, err)
	}

	user, err := s.findOrCreateUser(phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}

	accessToken, err := s.tokens.IssueAccessToken(user.ID, user.Role, user.Phone)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	record := &models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.cfg.RefreshTTL),
	}
	if err := s.rtRepo.Create(record); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}

	return &AuthResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *authService) findOrCreateUser(phone string) (*models.User, error) {
	user, err := s.userRepo.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{
		Phone: phone,
		Name:  "New User",
		Role:  string(models.RoleMainUser),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	log.Printf("created user %d for phone %s", user.ID, phone)
	return user, nil
}

// RefreshAccessToken mints a new access token for a live refresh token.
// Tokens are not rotated here; the stored record stays valid until its
// expiry or an explicit revoke.
func (s *authService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	record, err := s.rtRepo.GetByToken(refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	if record == nil || time.Now().After(record.ExpiresAt) {
		return "", apperrors.ErrAuthentication
	}

	user, err := s.userRepo.GetByID(record.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return s.tokens.IssueAccessToken(user.ID, user.Role, user.Phone)
}

// RevokeRefreshToken deletes the stored record. Revoking an unknown
// token is not an error.
func (s *authService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if err := s.rtRepo.DeleteByToken(refreshToken); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}
