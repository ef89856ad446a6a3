package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/hongminglow/payments-dashboard/internal/apperr"
	"github.com/hongminglow/payments-dashboard/internal/auth"
	"github.com/hongminglow/payments-dashboard/internal/http/respond"
	"github.com/hongminglow/payments-dashboard/internal/models"
	"github.com/hongminglow/payments-dashboard/internal/models/dto"
)

// CredentialValidator checks a username/password pair.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context, username, password string) (models.User, error)
}

// TokenService issues tokens at login and reads them without verification for /auth/decode.
type TokenService interface {
	Issue(user models.User) (string, error)
	Decode(raw string) (*auth.Claims, error)
}

// AuthHandler owns the login endpoint. It is the only caller of the token issuer.
type AuthHandler struct {
	users  CredentialValidator
	tokens TokenService
	log    *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(users CredentialValidator, tokens TokenService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, log: log}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r *mux.Router) {
	r.HandleFunc("/auth/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/decode", h.handleDecode).Methods(http.MethodPost)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.Login"
	log := h.log.With(slog.String("op", op))

	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Err(w, err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respond.Err(w, apperr.Validation("username and password are required"))
		return
	}

	user, err := h.users.ValidateCredentials(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			log.Info("login rejected")
		}
		fail(w, log, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		fail(w, log, err)
		return
	}
	log.Debug("login succeeded", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	respond.JSON(w, http.StatusOK, dto.LoginResponse{Token: token})
}

// handleDecode echoes a token's claims for display. Nothing is verified here.
func (h *AuthHandler) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req dto.DecodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Err(w, err)
		return
	}
	claims, err := h.tokens.Decode(strings.TrimSpace(req.Token))
	if err != nil {
		respond.Err(w, err)
		return
	}
	exp := claims.ExpiresAtTime()
	respond.JSON(w, http.StatusOK, dto.DecodedToken{
		Subject:   claims.Subject,
		Username:  claims.Username,
		Role:      string(claims.Role),
		ExpiresAt: exp,
		Expired:   !exp.IsZero() && time.Now().After(exp),
	})
}
