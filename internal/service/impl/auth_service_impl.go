package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"todo-api/internal/domain"
	"todo-api/internal/dto"
	"todo-api/internal/observability/metrics"
	"todo-api/internal/observability/middleware"
	"todo-api/internal/service"
	"todo-api/internal/store"

	"github.com/google/uuid"
)

type AuthConfig struct {
	OtpTTL        time.Duration // e.g. 10 * time.Minute
	ResetTokenTTL time.Duration // e.g. 15 * time.Minute
	ResetURLBase  string        // raw reset token is appended to this
}

type AuthServiceImpl struct {
	Store     *store.Store
	Passwords service.PasswordService
	Tokens    service.TokenService
	Email     service.EmailService
	Cfg       AuthConfig
	Now       func() time.Time
}

func NewAuthServiceImpl(st *store.Store, passwords service.PasswordService, tokens service.TokenService, mail service.EmailService, cfg AuthConfig) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:     st,
		Passwords: passwords,
		Tokens:    tokens,
		Email:     mail,
		Cfg:       cfg,
		Now:       time.Now,
	}
}

// Register creates an unverified user holding a hashed OTP and mails the raw
// code. A failed send deletes the user again: an account that can never be
// verified must not survive registration.
func (a *AuthServiceImpl) Register(ctx context.Context, r dto.RegisterRequest) (*dto.RegisterResponse, error) {
	result := "failure"
	defer func() { metrics.RegistrationsTotal.WithLabelValues(result).Inc() }()

	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" || r.Email == "" || r.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", domain.ErrValidation)
	}
	if len(r.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	if _, err := a.Store.Users().GetByEmail(ctx, r.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := a.Passwords.Hash(r.Password)
	if err != nil {
		return nil, err
	}

	otp, err := GenerateOtp()
	if err != nil {
		return nil, err
	}
	otpHash := HashSecret(otp)

	now := a.Now().UTC()
	otpExpiry := now.Add(a.Cfg.OtpTTL)
	user := &domain.User{
		ID:                       uuid.New(),
		Name:                     r.Name,
		Email:                    r.Email,
		PasswordHash:             passwordHash,
		IsVerified:               false,
		VerificationOtpHash:      &otpHash,
		VerificationOtpExpiresAt: &otpExpiry,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	// The unique index on email is the source of truth; the pre-check above
	// only gives a friendlier fast path when two registrations race.
	if err := a.Store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	if err := a.Email.SendOtp(ctx, user.Email, user.Name, otp); err != nil {
		if delErr := a.Store.Users().Delete(ctx, user.ID); delErr != nil {
			slog.Error("rollback after failed otp mail", "error", delErr, "user_id", user.ID,
				"request_id", middleware.RequestIDFromContext(ctx),
				"trace_id", middleware.TraceIDFromContext(ctx))
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrEmailDelivery, err)
	}

	result = "success"
	slog.Info("user registered", "user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx))
	return &dto.RegisterResponse{
		UserID:  user.ID.String(),
		Message: "Registration successful, please check your email for the verification code",
	}, nil
}

// VerifyOtp consumes the outstanding code; success flips the user to
// verified and logs them straight in.
func (a *AuthServiceImpl) VerifyOtp(ctx context.Context, r dto.VerifyOtpRequest) (*dto.AuthResponse, error) {
	result := "failure"
	defer func() { metrics.OtpVerificationsTotal.WithLabelValues(result).Inc() }()

	userID, err := uuid.Parse(strings.TrimSpace(r.UserID))
	if err != nil {
		return nil, domain.ErrOtpInvalid
	}

	user, err := a.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOtpInvalid
		}
		return nil, err
	}

	if user.VerificationOtpHash == nil || user.VerificationOtpExpiresAt == nil {
		return nil, domain.ErrOtpInvalid
	}
	if !secretsEqual(*user.VerificationOtpHash, HashSecret(r.Otp)) {
		return nil, domain.ErrOtpInvalid
	}
	if !a.Now().UTC().Before(*user.VerificationOtpExpiresAt) {
		return nil, domain.ErrOtpInvalid
	}

	if err := a.Store.Users().MarkVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsVerified = true

	token, err := a.issueToken(user, "verify")
	if err != nil {
		return nil, err
	}

	result = "success"
	slog.Info("email verified", "user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx))
	return authResponse(user, token), nil
}

func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest) (*dto.AuthResponse, error) {
	result := "failure"
	defer func() { metrics.LoginsTotal.WithLabelValues(result).Inc() }()

	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := a.Store.Users().GetByEmail(ctx, r.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials // don't leak which field failed
		}
		return nil, err
	}

	ok, err := a.Passwords.Verify(user.PasswordHash, r.Password)
	if err != nil || !ok {
		return nil, domain.ErrInvalidCredentials
	}

	// Checked only after the password matched, so verification state is not
	// revealed to a caller who doesn't know the password.
	if !user.IsVerified {
		return nil, domain.ErrNotVerified
	}

	token, err := a.issueToken(user, "login")
	if err != nil {
		return nil, err
	}

	result = "success"
	slog.Info("user logged in", "user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx))
	return authResponse(user, token), nil
}

// ForgotPassword stores a hashed reset token and mails the raw one. The
// stored token is not rolled back on a failed send; it is single-use and
// lapses on its own.
func (a *AuthServiceImpl) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)

	user, err := a.Store.Users().GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}

	raw, hash, err := NewResetToken()
	if err != nil {
		return err
	}

	expiresAt := a.Now().UTC().Add(a.Cfg.ResetTokenTTL)
	if err := a.Store.Users().SetResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return err
	}

	resetURL := a.Cfg.ResetURLBase + raw
	if err := a.Email.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrEmailDelivery, err)
	}

	slog.Info("password reset requested", "user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx))
	return nil
}

// ResetPassword consumes a live reset token and replaces the password hash.
// Lookup and consumption share one transaction so a token is spent at most
// once even under concurrent resets.
func (a *AuthServiceImpl) ResetPassword(ctx context.Context, r dto.ResetPasswordRequest) error {
	if len(r.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	passwordHash, err := a.Passwords.Hash(r.Password)
	if err != nil {
		return err
	}

	tokenHash := HashSecret(r.Token)
	var userID domain.UserID
	err = a.Store.WithTx(ctx, func(tx *store.Store) error {
		user, err := tx.Users().GetByResetTokenHash(ctx, tokenHash)
		if err != nil {
			return err
		}
		if user.ResetTokenExpiresAt == nil || !a.Now().UTC().Before(*user.ResetTokenExpiresAt) {
			return domain.ErrResetTokenInvalid
		}
		userID = user.ID
		return tx.Users().SetPasswordHash(ctx, user.ID, passwordHash)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrResetTokenInvalid
		}
		return err
	}

	slog.Info("password reset completed", "user_id", userID,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx))
	return nil
}

func (a *AuthServiceImpl) issueToken(user *domain.User, flow string) (string, error) {
	token, err := a.Tokens.Issue(user)
	if err != nil {
		metrics.TokensIssuedTotal.WithLabelValues(flow, "failure").Inc()
		return "", err
	}
	metrics.TokensIssuedTotal.WithLabelValues(flow, "success").Inc()
	return token, nil
}

func authResponse(user *domain.User, token string) *dto.AuthResponse {
	return &dto.AuthResponse{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Token: token,
	}
}
