package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"todo-api/internal/dto"
	"todo-api/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	ClientOrigin string
	TokenTTL     time.Duration
	CookieSecure bool
}

func NewRouter(cfg RouterConfig, auth service.AuthService, todos service.TodoService, gate *SessionGate) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", func(w http.ResponseWriter, req *http.Request) {
			var body dto.RegisterRequest
			if err := decodeJSON(w, req, &body); err != nil {
				writeError(w, http.StatusBadRequest, "bad_json", "invalid json")
				return
			}
			res, err := auth.Register(req.Context(), body)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, res)
		})

		r.Post("/verify-otp", func(w http.ResponseWriter, req *http.Request) {
			var body dto.VerifyOtpRequest
			if err := decodeJSON(w, req, &body); err != nil {
				writeError(w, http.StatusBadRequest, "bad_json", "invalid json")
				return
			}
			res, err := auth.VerifyOtp(req.Context(), body)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			setTokenCookie(w, res.Token, cfg.TokenTTL, cfg.CookieSecure)
			writeJSON(w, http.StatusOK, res)
		})

		r.Post("/login", func(w http.ResponseWriter, req *http.Request) {
			var body dto.LoginRequest
			if err := decodeJSON(w, req, &body); err != nil {
				writeError(w, http.StatusBadRequest, "bad_json", "invalid json")
				return
			}
			res, err := auth.Login(req.Context(), body)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			setTokenCookie(w, res.Token, cfg.TokenTTL, cfg.CookieSecure)
			writeJSON(w, http.StatusOK, res)
		})

		r.Post("/forgot-password", func(w http.ResponseWriter, req *http.Request) {
			var body dto.ForgotPasswordRequest
			if err := decodeJSON(w, req, &body); err != nil {
				writeError(w, http.StatusBadRequest, "bad_json", "invalid json")
				return
			}
			if err := auth.ForgotPassword(req.Context(), body.Email); err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Email sent successfully"})
		})

		r.Post("/reset-password", func(w http.ResponseWriter, req *http.Request) {
			var body dto.ResetPasswordRequest
			if err := decodeJSON(w, req, &body); err != nil {
				writeError(w, http.StatusBadRequest, "bad_json", "invalid json")
				return
			}
			if err := auth.ResetPassword(req.Context(), body); err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Password updated successfully"})
		})

		// Tokens are stateless; logout only drops the cookie. An already
		// issued token stays valid until its natural expiry.
		r.Post("/logout", func(w http.ResponseWriter, req *http.Request) {
			clearTokenCookie(w, cfg.CookieSecure)
			w.WriteHeader(http.StatusNoContent)
		})

		r.Group(func(r chi.Router) {
			r.Use(gate.Authenticate)
			r.Get("/me", func(w http.ResponseWriter, req *http.Request) {
				user, ok := CurrentUser(req.Context())
				if !ok {
					writeError(w, http.StatusUnauthorized, "unauthorized", "not authorized")
					return
				}
				writeJSON(w, http.StatusOK, dto.UserResponse{
					ID:         user.ID.String(),
					Name:       user.Name,
					Email:      user.Email,
					IsVerified: user.IsVerified,
				})
			})
		})
	})

	r.Route("/todos", func(r chi.Router) {
		r.Use(gate.Authenticate)

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			user, ok := CurrentUser(req.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "not authorized")
				return
			}
			res, err := todos.List(req.Context(), user.ID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
		})

		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			user, ok := CurrentUser(req.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "not authorized")
				return
			}
			var body dto.CreateTodoRequest
			if err := decodeJSON(w, req, &body); err != nil {
				writeError(w, http.StatusBadRequest, "bad_json", "invalid json")
				return
			}
			res, err := todos.Create(req.Context(), user.ID, body)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, res)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			user, ok := CurrentUser(req.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "not authorized")
				return
			}
			todoID, err := uuid.Parse(chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, http.StatusNotFound, "not_found", "not found")
				return
			}
			if err := todos.Delete(req.Context(), user.ID, todoID); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

// decodeJSON parses the request body strictly: unknown fields and trailing
// payloads are rejected before the request reaches business logic.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("multiple json values")
		}
		return err
	}
	return nil
}
