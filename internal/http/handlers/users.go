package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hongminglow/payments-dashboard/internal/auth"
	"github.com/hongminglow/payments-dashboard/internal/http/respond"
	"github.com/hongminglow/payments-dashboard/internal/models"
	"github.com/hongminglow/payments-dashboard/internal/models/dto"
)

// UserService is the user management surface exposed over HTTP.
type UserService interface {
	CreateUser(ctx context.Context, username, password, role string) (models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
}

type UsersHandler struct {
	users UserService
	log   *slog.Logger
}

func NewUsersHandler(users UserService, log *slog.Logger) *UsersHandler {
	return &UsersHandler{users: users, log: log}
}

// Register attaches guarded user routes.
func (h *UsersHandler) Register(r *mux.Router, guard *auth.Guard) {
	r.Handle("/users", guard.Require(auth.OpCreateUser, http.HandlerFunc(h.handleCreate))).Methods(http.MethodPost)
	r.Handle("/users", guard.Require(auth.OpListUsers, http.HandlerFunc(h.handleList))).Methods(http.MethodGet)
}

func (h *UsersHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.CreateUser"
	log := h.log.With(slog.String("op", op))

	var req dto.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Err(w, err)
		return
	}
	created, err := h.users.CreateUser(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		fail(w, log, err)
		return
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		log.Info("user created", slog.String("username", created.Username), slog.String("by", claims.Username))
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *UsersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindAll(r.Context())
	if err != nil {
		fail(w, h.log.With(slog.String("op", "handlers.ListUsers")), err)
		return
	}
	respond.JSON(w, http.StatusOK, users)
}
