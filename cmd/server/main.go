package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"todo-api/internal/config"
	"todo-api/internal/email"
	"todo-api/internal/observability/logging"
	"todo-api/internal/observability/metrics"
	obsmw "todo-api/internal/observability/middleware"
	impl "todo-api/internal/service/impl"
	"todo-api/internal/store"
	httpx "todo-api/internal/transport/http"
	"todo-api/pkg/db"

	"todo-api/internal/domain"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "todo-api",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)

	logger.Info("starting service")

	cfg := config.Load()
	metrics.MustRegister("todo-api")

	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: env == "dev"})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	if err := gdb.AutoMigrate(&domain.User{}, &domain.Todo{}); err != nil {
		logger.Error("automigrate", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)

	pw := impl.NewPasswordServiceArgon2id()
	ts := impl.NewTokenServiceHS256(impl.TokenConfig{
		Issuer:     cfg.Issuer,
		TTL:        cfg.TokenTTL,
		SigningKey: []byte(cfg.SigningKey),
	})
	mail := impl.NewEmailServiceSMTP(impl.EmailConfig{
		SMTP: email.SMTPSettings{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			TLSMode:  cfg.SMTPTLSMode,
		},
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		OtpTTL:   cfg.OtpTTL,
	})
	as := impl.NewAuthServiceImpl(st, pw, ts, mail, impl.AuthConfig{
		OtpTTL:        cfg.OtpTTL,
		ResetTokenTTL: cfg.ResetTokenTTL,
		ResetURLBase:  cfg.ResetURLBase,
	})
	tds := impl.NewTodoServiceImpl(st)

	gate := &httpx.SessionGate{Tokens: ts, Store: st}
	mux := httpx.NewRouter(httpx.RouterConfig{
		ClientOrigin: cfg.ClientOrigin,
		TokenTTL:     cfg.TokenTTL,
		CookieSecure: cfg.CookieSecure,
	}, as, tds, gate)

	handler := obsmw.WithRequestAndTrace(obsmw.WithMetrics(mux))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("listening", "addr", srv.Addr, "issuer", cfg.Issuer)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
