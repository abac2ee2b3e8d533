package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrOtpInvalid         = errors.New("invalid or expired otp")
	ErrResetTokenInvalid  = errors.New("invalid or expired reset token")
	ErrEmailDelivery      = errors.New("email delivery failed")
)
