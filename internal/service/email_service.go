package service

import "context"

type EmailService interface {
	SendOtp(ctx context.Context, to, name, otp string) error
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}
