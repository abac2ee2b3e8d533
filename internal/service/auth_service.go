package service

import (
	"context"

	"todo-api/internal/dto"
)

type AuthService interface {
	Register(ctx context.Context, r dto.RegisterRequest) (*dto.RegisterResponse, error)
	VerifyOtp(ctx context.Context, r dto.VerifyOtpRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, r dto.LoginRequest) (*dto.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, r dto.ResetPasswordRequest) error
}
