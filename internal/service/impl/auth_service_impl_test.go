package impl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"todo-api/internal/domain"
	"todo-api/internal/dto"
	"todo-api/internal/store"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type sentOtp struct {
	to, name, otp string
}

type sentReset struct {
	to, resetURL string
}

type fakeMailer struct {
	otps      []sentOtp
	resets    []sentReset
	failOtp   bool
	failReset bool
}

func (f *fakeMailer) SendOtp(ctx context.Context, to, name, otp string) error {
	if f.failOtp {
		return errors.New("smtp unavailable")
	}
	f.otps = append(f.otps, sentOtp{to: to, name: name, otp: otp})
	return nil
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	if f.failReset {
		return errors.New("smtp unavailable")
	}
	f.resets = append(f.resets, sentReset{to: to, resetURL: resetURL})
	return nil
}

func setupStore(t *testing.T) *store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Todo{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return store.New(db)
}

func setupAuthService(t *testing.T) (*AuthServiceImpl, *store.Store, *fakeMailer) {
	t.Helper()

	st := setupStore(t)
	mail := &fakeMailer{}
	tokens := NewTokenServiceHS256(TokenConfig{
		Issuer:     "todo-api-test",
		TTL:        10 * 24 * time.Hour,
		SigningKey: []byte("test-secret"),
	})
	svc := NewAuthServiceImpl(st, NewPasswordServiceArgon2id(), tokens, mail, AuthConfig{
		OtpTTL:        10 * time.Minute,
		ResetTokenTTL: 15 * time.Minute,
		ResetURLBase:  "http://localhost:5173/reset-password/",
	})
	return svc, st, mail
}

func register(t *testing.T, svc *AuthServiceImpl, email string) *dto.RegisterResponse {
	t.Helper()
	res, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Amy",
		Email:    email,
		Password: "pw123456",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return res
}

func TestRegister_CreatesUnverifiedUserWithHashedOtp(t *testing.T) {
	svc, st, mail := setupAuthService(t)

	before := time.Now().UTC()
	res := register(t, svc, "amy@x.com")
	if res.UserID == "" {
		t.Fatalf("expected a user id")
	}

	user, err := st.Users().GetByEmail(context.Background(), "amy@x.com")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.IsVerified {
		t.Fatalf("new user must start unverified")
	}
	if user.PasswordHash == "pw123456" || user.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
	if user.VerificationOtpHash == nil || user.VerificationOtpExpiresAt == nil {
		t.Fatalf("expected an outstanding otp")
	}

	if len(mail.otps) != 1 {
		t.Fatalf("expected one otp mail, got %d", len(mail.otps))
	}
	sent := mail.otps[0]
	if sent.to != "amy@x.com" || len(sent.otp) != 6 {
		t.Fatalf("unexpected otp mail: %+v", sent)
	}
	if *user.VerificationOtpHash == sent.otp {
		t.Fatalf("stored otp must be hashed, not the raw code")
	}
	if *user.VerificationOtpHash != HashSecret(sent.otp) {
		t.Fatalf("stored hash must match the mailed code")
	}

	expiry := *user.VerificationOtpExpiresAt
	if expiry.Before(before.Add(9*time.Minute)) || expiry.After(before.Add(11*time.Minute)) {
		t.Fatalf("expected otp expiry about 10m out, got %s", expiry)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, st, mail := setupAuthService(t)
	register(t, svc, "amy@x.com")

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Mallory", Email: "amy@x.com", Password: "pw123456",
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// No second user and no second mail.
	if len(mail.otps) != 1 {
		t.Fatalf("conflict must not send mail")
	}
	user, err := st.Users().GetByEmail(context.Background(), "amy@x.com")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Name != "Amy" {
		t.Fatalf("conflict must not mutate the existing user")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := setupAuthService(t)

	cases := []dto.RegisterRequest{
		{Name: "", Email: "a@x.com", Password: "pw123456"},
		{Name: "A", Email: "", Password: "pw123456"},
		{Name: "A", Email: "a@x.com", Password: ""},
		{Name: "A", Email: "a@x.com", Password: "short"},
	}
	for _, r := range cases {
		if _, err := svc.Register(context.Background(), r); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", r, err)
		}
	}
}

func TestRegister_MailFailureRollsBackUser(t *testing.T) {
	svc, st, mail := setupAuthService(t)
	mail.failOtp = true

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Amy", Email: "amy@x.com", Password: "pw123456",
	})
	if !errors.Is(err, domain.ErrEmailDelivery) {
		t.Fatalf("expected ErrEmailDelivery, got %v", err)
	}

	if _, err := st.Users().GetByEmail(context.Background(), "amy@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("orphaned unverifiable user must be deleted, got %v", err)
	}

	// The address is free again afterwards.
	mail.failOtp = false
	register(t, svc, "amy@x.com")
}

func TestVerifyOtp_SuccessAndSingleUse(t *testing.T) {
	svc, st, mail := setupAuthService(t)
	res := register(t, svc, "amy@x.com")
	otp := mail.otps[0].otp

	auth, err := svc.VerifyOtp(context.Background(), dto.VerifyOtpRequest{UserID: res.UserID, Otp: otp})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if auth.Token == "" {
		t.Fatalf("verification must log the user in")
	}
	if auth.Email != "amy@x.com" {
		t.Fatalf("unexpected auth response: %+v", auth)
	}

	user, err := st.Users().GetByEmail(context.Background(), "amy@x.com")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if !user.IsVerified {
		t.Fatalf("expected user verified")
	}
	if user.VerificationOtpHash != nil || user.VerificationOtpExpiresAt != nil {
		t.Fatalf("otp fields must be cleared after consumption")
	}

	// Single use: the same code cannot be replayed.
	if _, err := svc.VerifyOtp(context.Background(), dto.VerifyOtpRequest{UserID: res.UserID, Otp: otp}); !errors.Is(err, domain.ErrOtpInvalid) {
		t.Fatalf("expected replayed otp to fail, got %v", err)
	}
}

func TestVerifyOtp_WrongCodeAndUnknownUser(t *testing.T) {
	svc, _, mail := setupAuthService(t)
	res := register(t, svc, "amy@x.com")

	wrong := "000000"
	if wrong == mail.otps[0].otp {
		wrong = "000001"
	}
	if _, err := svc.VerifyOtp(context.Background(), dto.VerifyOtpRequest{UserID: res.UserID, Otp: wrong}); !errors.Is(err, domain.ErrOtpInvalid) {
		t.Fatalf("expected wrong otp to fail, got %v", err)
	}
	if _, err := svc.VerifyOtp(context.Background(), dto.VerifyOtpRequest{UserID: "b34c47c0-0000-0000-0000-000000000000", Otp: "123456"}); !errors.Is(err, domain.ErrOtpInvalid) {
		t.Fatalf("expected unknown user to fail generically, got %v", err)
	}
	if _, err := svc.VerifyOtp(context.Background(), dto.VerifyOtpRequest{UserID: "not-a-uuid", Otp: "123456"}); !errors.Is(err, domain.ErrOtpInvalid) {
		t.Fatalf("expected malformed user id to fail generically, got %v", err)
	}
}

func TestVerifyOtp_Expired(t *testing.T) {
	svc, _, mail := setupAuthService(t)
	res := register(t, svc, "amy@x.com")
	otp := mail.otps[0].otp

	svc.Now = func() time.Time { return time.Now().Add(10*time.Minute + time.Second) }
	if _, err := svc.VerifyOtp(context.Background(), dto.VerifyOtpRequest{UserID: res.UserID, Otp: otp}); !errors.Is(err, domain.ErrOtpInvalid) {
		t.Fatalf("expected expired otp to fail, got %v", err)
	}
}

func TestLogin_Gating(t *testing.T) {
	svc, _, mail := setupAuthService(t)
	res := register(t, svc, "amy@x.com")

	// Wrong password fails generically regardless of verification state.
	if _, err := svc.Login(context.Background(), dto.LoginRequest{Email: "amy@x.com", Password: "wrongpass"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@x.com", Password: "pw123456"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	// Correct password but unverified: only now is the state revealed.
	if _, err := svc.Login(context.Background(), dto.LoginRequest{Email: "amy@x.com", Password: "pw123456"}); !errors.Is(err, domain.ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}

	if _, err := svc.VerifyOtp(context.Background(), dto.VerifyOtpRequest{UserID: res.UserID, Otp: mail.otps[0].otp}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	auth, err := svc.Login(context.Background(), dto.LoginRequest{Email: "amy@x.com", Password: "pw123456"})
	if err != nil {
		t.Fatalf("login after verification: %v", err)
	}
	if auth.Token == "" {
		t.Fatalf("expected a session token")
	}
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	svc, _, mail := setupAuthService(t)

	if err := svc.ForgotPassword(context.Background(), "nobody@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(mail.resets) != 0 {
		t.Fatalf("unknown email must not trigger mail")
	}
}

func TestForgotPassword_StoresHashMailsRawToken(t *testing.T) {
	svc, st, mail := setupAuthService(t)
	register(t, svc, "amy@x.com")

	before := time.Now().UTC()
	if err := svc.ForgotPassword(context.Background(), "amy@x.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}

	if len(mail.resets) != 1 {
		t.Fatalf("expected one reset mail")
	}
	resetURL := mail.resets[0].resetURL
	raw := strings.TrimPrefix(resetURL, "http://localhost:5173/reset-password/")
	if raw == resetURL || len(raw) != 64 {
		t.Fatalf("expected reset link with 64-char raw token, got %q", resetURL)
	}

	user, err := st.Users().GetByEmail(context.Background(), "amy@x.com")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.ResetTokenHash == nil || user.ResetTokenExpiresAt == nil {
		t.Fatalf("expected reset token fields set")
	}
	if *user.ResetTokenHash == raw {
		t.Fatalf("mail must carry the raw token, storage only the hash")
	}
	if *user.ResetTokenHash != HashSecret(raw) {
		t.Fatalf("stored hash must match the mailed token")
	}

	expiry := *user.ResetTokenExpiresAt
	if expiry.Before(before.Add(14*time.Minute)) || expiry.After(before.Add(16*time.Minute)) {
		t.Fatalf("expected reset expiry about 15m out, got %s", expiry)
	}
}

func TestResetPassword_FullFlow(t *testing.T) {
	svc, _, mail := setupAuthService(t)
	res := register(t, svc, "amy@x.com")
	if _, err := svc.VerifyOtp(context.Background(), dto.VerifyOtpRequest{UserID: res.UserID, Otp: mail.otps[0].otp}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if err := svc.ForgotPassword(context.Background(), "amy@x.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	raw := strings.TrimPrefix(mail.resets[0].resetURL, "http://localhost:5173/reset-password/")

	if err := svc.ResetPassword(context.Background(), dto.ResetPasswordRequest{Token: raw, Password: "newpass99"}); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := svc.Login(context.Background(), dto.LoginRequest{Email: "amy@x.com", Password: "pw123456"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must no longer work, got %v", err)
	}
	if _, err := svc.Login(context.Background(), dto.LoginRequest{Email: "amy@x.com", Password: "newpass99"}); err != nil {
		t.Fatalf("new password must work: %v", err)
	}

	// Single use.
	if err := svc.ResetPassword(context.Background(), dto.ResetPasswordRequest{Token: raw, Password: "another99"}); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected consumed token to fail, got %v", err)
	}
}

func TestResetPassword_InvalidAndExpired(t *testing.T) {
	svc, _, mail := setupAuthService(t)
	register(t, svc, "amy@x.com")

	if err := svc.ResetPassword(context.Background(), dto.ResetPasswordRequest{Token: "bogus", Password: "newpass99"}); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}

	if err := svc.ForgotPassword(context.Background(), "amy@x.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	raw := strings.TrimPrefix(mail.resets[0].resetURL, "http://localhost:5173/reset-password/")

	svc.Now = func() time.Time { return time.Now().Add(15*time.Minute + time.Second) }
	if err := svc.ResetPassword(context.Background(), dto.ResetPasswordRequest{Token: raw, Password: "newpass99"}); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}
