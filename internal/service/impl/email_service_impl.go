package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"todo-api/internal/email"
	"todo-api/internal/observability/metrics"
)

type EmailConfig struct {
	SMTP     email.SMTPSettings
	From     string
	FromName string
	OtpTTL   time.Duration
}

// EmailServiceSMTP delivers mails synchronously in the request path; a slow
// provider stalls only the requesting caller.
type EmailServiceSMTP struct {
	cfg EmailConfig
}

func NewEmailServiceSMTP(cfg EmailConfig) *EmailServiceSMTP {
	return &EmailServiceSMTP{cfg: cfg}
}

func (s *EmailServiceSMTP) SendOtp(ctx context.Context, to, name, otp string) error {
	body := strings.Join([]string{
		fmt.Sprintf("Hi %s,", name),
		"",
		fmt.Sprintf("Your verification code is %s.", otp),
		"",
		fmt.Sprintf("The code expires in %s. If you did not sign up, you can ignore this email.", humanTTL(s.cfg.OtpTTL)),
	}, "\n")
	return s.send(ctx, "otp", to, "Verify your email", body)
}

// humanTTL renders a duration the way it reads in a mail: "10 minutes",
// "1 hour". Sub-minute values round up so the mail never promises less time
// than the code actually has.
func humanTTL(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	m := int((d + time.Minute - 1) / time.Minute)
	if m <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

func (s *EmailServiceSMTP) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	body := strings.Join([]string{
		"You requested a password reset. Click the link to reset:",
		"",
		resetURL,
		"",
		"If you did not request this, you can ignore this email.",
	}, "\n")
	return s.send(ctx, "password_reset", to, "Password Reset", body)
}

func (s *EmailServiceSMTP) send(ctx context.Context, kind, to, subject, body string) error {
	err := email.SendSMTP(s.cfg.SMTP, email.Message{
		FromName:  s.cfg.FromName,
		FromEmail: s.cfg.From,
		ToEmail:   to,
		Subject:   subject,
		TextBody:  body,
	})
	if err != nil {
		metrics.EmailsSentTotal.WithLabelValues(kind, "failure").Inc()
		slog.Warn("email send failed", "kind", kind, "error", err)
		return err
	}
	metrics.EmailsSentTotal.WithLabelValues(kind, "success").Inc()
	return nil
}
