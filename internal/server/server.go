package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hongminglow/payments-dashboard/internal/auth"
	"github.com/hongminglow/payments-dashboard/internal/config"
	"github.com/hongminglow/payments-dashboard/internal/http/handlers"
	"github.com/hongminglow/payments-dashboard/internal/http/respond"
	"github.com/hongminglow/payments-dashboard/internal/middleware"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Users    handlers.UserService
	Login    handlers.CredentialValidator
	Payments handlers.PaymentService
	Tokens   *auth.TokenManager
	Log      *slog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// NewHandler builds the routed, guarded handler chain.
func NewHandler(cfg config.Config, deps Deps) http.Handler {
	if deps.Log != nil {
		respond.SetLogger(deps.Log)
	}
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	guard := auth.NewGuard(deps.Tokens, auth.DefaultPolicy())

	handlers.NewHealthHandler(time.Now()).Register(r)
	handlers.NewAuthHandler(deps.Login, deps.Tokens, deps.Log).Register(r)
	handlers.NewUsersHandler(deps.Users, deps.Log).Register(r, guard)
	handlers.NewPaymentsHandler(deps.Payments, deps.Log).Register(r, guard)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(deps.Log, r))
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
