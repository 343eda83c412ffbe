package apperrors

import "errors"

var (
	ErrValidation          = errors.New("invalid request")
	ErrAuthentication      = errors.New("invalid or expired token")
	ErrAuthorization       = errors.New("insufficient permissions")
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired OTP")
	ErrTooManyAttempts     = errors.New("too many verification attempts")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNotFound            = errors.New("not found")
	ErrPersistence         = errors.New("storage failure")
	ErrQueueUnavailable    = errors.New("dispatch queue unavailable")
)
